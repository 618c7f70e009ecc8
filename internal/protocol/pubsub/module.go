package pubsub

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	pkgif "github.com/dep2p/go-comms/pkg/interfaces"
)

// Module 返回 Fx 模块
//
// 依赖：Classifier[T]；可选 *config.Config、prometheus.Registerer。
// 提供 *Publisher[T, M]，停止时关闭。
func Module[T comparable, M pkgif.Envelope]() fx.Option {
	return fx.Module("pubsub",
		fx.Provide(
			fx.Annotate(ConfigFromUnified, fx.ParamTags(`optional:"true"`)),
			ProvidePublisher[T, M],
		),
		fx.Invoke(registerLifecycle[T, M]),
	)
}

// publisherInput 依赖注入参数
type publisherInput[T comparable] struct {
	fx.In

	Config     Config
	Classifier Classifier[T]
	Registerer prometheus.Registerer `optional:"true"`
}

// ProvidePublisher 提供发布者
func ProvidePublisher[T comparable, M pkgif.Envelope](input publisherInput[T]) (*Publisher[T, M], error) {
	var opts []Option
	if input.Config.MetricsEnabled && input.Registerer != nil {
		opts = append(opts, WithRegisterer(input.Registerer))
	}
	return NewPublisher[T, M](input.Config, input.Classifier, opts...)
}

func registerLifecycle[T comparable, M pkgif.Envelope](lc fx.Lifecycle, pub *Publisher[T, M]) {
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return pub.Close()
		},
	})
}
