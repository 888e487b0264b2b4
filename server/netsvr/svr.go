package netsvr

import (
	"net/http"

	"github.com/zintix-labs/blastlab/server/app"
)

// NetSvr 封裝「路由行為 + 服務啟停」的抽象介面。
//   - 只暴露給最外層組裝（server.RunWithSvr）使用，handler 只面向 NetRouter。
//   - 若改用不同 http 框架，只要實作此介面即可；目前實作為 chi。
//   - NetSvr 本身實作了 app.Component，可以直接交給 app.App 管理生命週期。
type NetSvr interface {
	NetRouter
	app.Component

	// Address 監聽位址，例如 ":5808"
	Address() string
	// Handler 根 handler，給 httptest 或掛到其他 server 底下
	Handler() http.Handler
}

// NetRouter 定義純路由行為，讓子模組只操作路由而不持有啟停控制權。
// Group 回呼只會拿到 NetRouter，看不到 Run/Shutdown。
type NetRouter interface {
	// middleware，必須在註冊任何路由之前呼叫
	Use(middleware func(http.Handler) http.Handler)

	// 註冊路由
	Get(path string, h http.HandlerFunc)
	Post(path string, h http.HandlerFunc)
	Put(path string, h http.HandlerFunc)
	Delete(path string, h http.HandlerFunc)

	// 群組路由
	Group(path string, fn func(NetRouter))
}

var _ NetSvr = (*ChiAdapter)(nil)
