package util

import "sync"

// SignalHandler 信号处理函数
type SignalHandler func(sender any, params ...any)

// Signals 进程内信号总线，模块间解耦通信
type Signals struct {
	mu       sync.RWMutex
	handlers map[string][]SignalHandler
}

var (
	sigOnce sync.Once
	sigBus  *Signals
)

// Sig 获取全局信号总线
func Sig() *Signals {
	sigOnce.Do(func() {
		sigBus = &Signals{handlers: make(map[string][]SignalHandler)}
	})
	return sigBus
}

// Connect 订阅信号
func (s *Signals) Connect(sig string, handler SignalHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[sig] = append(s.handlers[sig], handler)
}

// Emit 同步派发信号，处理器按注册顺序执行
func (s *Signals) Emit(sig string, sender any, params ...any) {
	s.mu.RLock()
	handlers := make([]SignalHandler, len(s.handlers[sig]))
	copy(handlers, s.handlers[sig])
	s.mu.RUnlock()
	for _, h := range handlers {
		h(sender, params...)
	}
}

// Disconnect 取消某信号的全部订阅
func (s *Signals) Disconnect(sig string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.handlers, sig)
}
