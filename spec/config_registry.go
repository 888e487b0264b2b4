package spec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/zintix-labs/blastlab/errs"
	"gopkg.in/yaml.v3"
)

// GetBalanceByYAML
// 會讀取 YAML 設定、補預設值並執行基本檢查後回傳。
// 未知欄位直接報錯。
func GetBalanceByYAML(data []byte) (*BalanceSetting, error) {
	bs := &BalanceSetting{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // 多寫/拼錯欄位就報錯
	if err := dec.Decode(bs); err != nil {
		return nil, errs.Wrap(err, "failed to unmarshall yaml")
	}
	if err := bs.init(); err != nil {
		return nil, errs.Wrap(err, "balance setting initialized err")
	}
	return bs, nil
}

// GetBalanceByJSON
// 會讀取 Json 設定、補預設值並執行基本檢查後回傳
func GetBalanceByJSON(data []byte) (*BalanceSetting, error) {
	bs := &BalanceSetting{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(bs); err != nil {
		return nil, errs.Wrap(err, "can not unmarshall json byte")
	}
	if err := bs.init(); err != nil {
		return nil, errs.Wrap(err, "balance setting initialized err")
	}
	return bs, nil
}

// LoadBalance 從 fs.FS 讀取指定檔名，依副檔名選擇解析方式
func LoadBalance(src fs.FS, filename string) (*BalanceSetting, error) {
	if src == nil {
		return nil, errs.NewCode(errs.Fatal, errs.CodeConfig, "nil fs")
	}
	raw, err := fs.ReadFile(src, filename)
	if err != nil {
		return nil, errs.Wrap(err, "balance parse file error")
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return GetBalanceByYAML(raw)
	case ".json":
		return GetBalanceByJSON(raw)
	default:
		return nil, errs.NewCode(errs.Fatal, errs.CodeConfig, fmt.Sprintf("unsupported config format: %q", filename))
	}
}
