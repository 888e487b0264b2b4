package spec

import (
	"fmt"
	"math"

	"github.com/zintix-labs/blastlab/errs"
)

// 尺寸類別在 BandSetting.Probs 中的固定順序
const (
	ClassTiny = iota
	ClassSmall
	ClassMedium
	NumClasses
)

// BalanceSetting 描述一局 Block Blast 的平衡參數。
//
// 預設值見 DefaultBalance，所有欄位都可由 YAML/JSON 覆寫。
type BalanceSetting struct {
	Name             string        `yaml:"name"                json:"name"`
	RNG              string        `yaml:"rng"                 json:"rng"`
	Bands            []BandSetting `yaml:"bands"               json:"bands"`
	CellPoints       int           `yaml:"cell_points"         json:"cell_points"`
	LinePoints       int           `yaml:"line_points"         json:"line_points"`
	PayoutRatio      int           `yaml:"payout_ratio"        json:"payout_ratio"`
	GameType         string        `yaml:"game_type"           json:"game_type"`
	BestScoreKey     string        `yaml:"best_score_key"      json:"best_score_key"`
	MaxSimPlacements int           `yaml:"max_sim_placements"  json:"max_sim_placements"`
}

// BandSetting 一個填充率區間的尺寸類別機率。
//
// Above 為區間下界（不含）：填充率 > Above 時採用此區間。
// 最後一個區間為預設區間，不論 Above 為何都會接住剩下的填充率。
type BandSetting struct {
	Above  float64 `yaml:"above"   json:"above"`
	Tiny   float64 `yaml:"tiny"    json:"tiny"`
	Small  float64 `yaml:"small"   json:"small"`
	Medium float64 `yaml:"medium"  json:"medium"`
}

// Probs 依 ClassTiny/ClassSmall/ClassMedium 順序回傳機率
func (b BandSetting) Probs() [NumClasses]float64 {
	return [NumClasses]float64{b.Tiny, b.Small, b.Medium}
}

const (
	DefaultGameType     = "block_blast"
	DefaultBestScoreKey = "bb_highscore"
	DefaultPayoutRatio  = 100
	DefaultMaxPlacement = 2000
)

// DefaultBalance 回傳標準平衡設定
func DefaultBalance() *BalanceSetting {
	bs := &BalanceSetting{
		Name: "standard",
		RNG:  "pcg64",
		Bands: []BandSetting{
			{Above: 0.7, Tiny: 0.6, Small: 0.3, Medium: 0.1},
			{Above: 0.5, Tiny: 0.3, Small: 0.4, Medium: 0.3},
			{Above: 0.3, Tiny: 0.15, Small: 0.35, Medium: 0.5},
			{Above: 0, Tiny: 0.1, Small: 0.25, Medium: 0.65},
		},
		CellPoints:       10,
		LinePoints:       100,
		PayoutRatio:      DefaultPayoutRatio,
		GameType:         DefaultGameType,
		BestScoreKey:     DefaultBestScoreKey,
		MaxSimPlacements: DefaultMaxPlacement,
	}
	return bs
}

// init 補上預設值後檢查
func (bs *BalanceSetting) init() error {
	if bs.Name == "" {
		bs.Name = "standard"
	}
	if bs.RNG == "" {
		bs.RNG = "pcg64"
	}
	if bs.PayoutRatio == 0 {
		bs.PayoutRatio = DefaultPayoutRatio
	}
	if bs.GameType == "" {
		bs.GameType = DefaultGameType
	}
	if bs.BestScoreKey == "" {
		bs.BestScoreKey = DefaultBestScoreKey
	}
	if bs.MaxSimPlacements == 0 {
		bs.MaxSimPlacements = DefaultMaxPlacement
	}
	return bs.Valid()
}

// Valid 執行最基本的設定檔檢查。
func (bs *BalanceSetting) Valid() error {
	if bs == nil {
		return errs.NewCode(errs.Fatal, errs.CodeConfig, "nil balance setting")
	}
	if len(bs.Bands) == 0 {
		return errs.NewCode(errs.Fatal, errs.CodeConfig, fmt.Sprintf("balance: %s err:empty bands", bs.Name))
	}
	for i, b := range bs.Bands {
		if i > 0 && !(b.Above < bs.Bands[i-1].Above) {
			return errs.NewCode(errs.Fatal, errs.CodeConfig,
				fmt.Sprintf("balance: %s err:band thresholds must be strictly descending (band %d)", bs.Name, i))
		}
		sum := 0.0
		for _, p := range b.Probs() {
			if p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
				return errs.NewCode(errs.Fatal, errs.CodeConfig,
					fmt.Sprintf("balance: %s err:invalid probability in band %d", bs.Name, i))
			}
			sum += p
		}
		if math.Abs(sum-1) > 1e-9 {
			return errs.NewCode(errs.Fatal, errs.CodeConfig,
				fmt.Sprintf("balance: %s err:band %d probabilities sum to %v", bs.Name, i, sum))
		}
	}
	if bs.CellPoints < 0 || bs.LinePoints < 0 {
		return errs.NewCode(errs.Fatal, errs.CodeConfig, fmt.Sprintf("balance: %s err:negative scoring constant", bs.Name))
	}
	if bs.PayoutRatio <= 0 {
		return errs.NewCode(errs.Fatal, errs.CodeConfig, fmt.Sprintf("balance: %s err:payout_ratio must be > 0", bs.Name))
	}
	if bs.MaxSimPlacements < 0 {
		return errs.NewCode(errs.Fatal, errs.CodeConfig, fmt.Sprintf("balance: %s err:negative max_sim_placements", bs.Name))
	}
	switch bs.RNG {
	case "pcg64", "pcg32":
	default:
		return errs.NewCode(errs.Fatal, errs.CodeConfig, fmt.Sprintf("balance: %s err:unknown rng %q", bs.Name, bs.RNG))
	}
	return nil
}

// BandIndex 回傳填充率所屬的區間索引
func (bs *BalanceSetting) BandIndex(fill float64) int {
	for i := 0; i < len(bs.Bands)-1; i++ {
		if fill > bs.Bands[i].Above {
			return i
		}
	}
	return len(bs.Bands) - 1
}
