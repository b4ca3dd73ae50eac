package models

// 信号名，经 util.Sig() 总线派发
const (
	SigUserCreate      = "user.create"
	SigUserLogin       = "user.login"
	SigAlertCreated    = "alert.created"
	SigAlertDispatched = "alert.dispatched"
	SigAlertResolved   = "alert.resolved"
)
