package connectivity

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	pkgif "github.com/dep2p/go-comms/pkg/interfaces"
)

// Module 返回 Fx 模块
//
// 依赖：pkgif.ConnectionManager；可选 *config.Config、prometheus.Registerer、clock.Clock。
func Module() fx.Option {
	return fx.Module("connectivity",
		fx.Provide(
			fx.Annotate(ConfigFromUnified, fx.ParamTags(`optional:"true"`)),
			ProvideManager,
		),
		fx.Invoke(registerLifecycle),
	)
}

// managerInput 依赖注入参数
type managerInput struct {
	fx.In

	Config     Config
	ConnMgr    pkgif.ConnectionManager
	Registerer prometheus.Registerer `optional:"true"`
	Clock      clock.Clock           `optional:"true"`
}

// managerOutput 依赖注入输出
type managerOutput struct {
	fx.Out

	Manager      *Manager
	Connectivity pkgif.Connectivity
}

// ProvideManager 提供连通性 actor
func ProvideManager(input managerInput) (managerOutput, error) {
	opts := []Option{WithClock(input.Clock)}
	if input.Config.MetricsEnabled && input.Registerer != nil {
		opts = append(opts, WithRegisterer(input.Registerer))
	}

	mgr, err := NewManager(input.Config, input.ConnMgr, opts...)
	if err != nil {
		return managerOutput{}, err
	}
	return managerOutput{Manager: mgr, Connectivity: mgr}, nil
}

// lifecycleInput 生命周期输入参数
type lifecycleInput struct {
	fx.In
	LC      fx.Lifecycle
	Manager *Manager
}

// registerLifecycle 注册生命周期
func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return input.Manager.Start(ctx)
		},
		OnStop: func(_ context.Context) error {
			return input.Manager.Close()
		},
	})
}
