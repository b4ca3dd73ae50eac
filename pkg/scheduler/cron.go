package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
)

// Cron 定时任务调度器，承载告警留存清理等按表达式触发的作业；
// 任务 panic 被 Recover 链捕获，不影响其他任务
type Cron struct {
	c   *cron.Cron
	loc *time.Location
}

// NewCron 构造调度器，loc 为 nil 时取本地时区
func NewCron(loc *time.Location) *Cron {
	if loc == nil {
		loc = time.Local
	}
	c := cron.New(cron.WithLocation(loc), cron.WithChain(cron.Recover(cron.DefaultLogger)))
	return &Cron{c: c, loc: loc}
}

func (cr *Cron) Start() { cr.c.Start() }
func (cr *Cron) Stop()  { ctx := cr.c.Stop(); <-ctx.Done() }

func (cr *Cron) Add(expr string, job Job) (cron.EntryID, error) {
	return cr.c.AddFunc(expr, func() { job.Run(context.Background()) })
}

func (cr *Cron) AddWithCtx(expr string, fn func(ctx context.Context)) (cron.EntryID, error) {
	return cr.c.AddFunc(expr, func() { fn(context.Background()) })
}

func (cr *Cron) Entries() []cron.Entry { return cr.c.Entries() }
