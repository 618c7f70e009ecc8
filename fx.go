package comms

import (
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-comms/internal/core/connectivity"
	"github.com/dep2p/go-comms/internal/protocol/pubsub"
	pkgif "github.com/dep2p/go-comms/pkg/interfaces"
)

// buildFxApp 构建 Fx 应用
//
// 加载顺序（按依赖）：
//  1. 配置与外部协作者：统一配置、连接管理器、分类器
//  2. 可选依赖：Registerer、Clock
//  3. 模块：Connectivity → PubSub
//  4. 用户自定义 Fx 选项
func buildFxApp[T comparable, M pkgif.Envelope](
	o *options,
	connMgr pkgif.ConnectionManager,
	classifier pubsub.Classifier[T],
	node *Node[T, M],
) (*fx.App, error) {
	if err := o.config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	modules := []fx.Option{
		fx.Supply(o.config),
		fx.Provide(func() pkgif.ConnectionManager { return connMgr }),
		fx.Provide(func() pubsub.Classifier[T] { return classifier }),
	}

	if o.registerer != nil {
		reg := o.registerer
		modules = append(modules, fx.Provide(func() prometheus.Registerer { return reg }))
	}
	if o.clock != nil {
		clk := o.clock
		modules = append(modules, fx.Provide(func() clock.Clock { return clk }))
	}

	modules = append(modules,
		connectivity.Module(),
		pubsub.Module[T, M](),
		fx.Populate(&node.conn, &node.pub),
	)
	modules = append(modules, o.fxOptions...)

	// fx 自身的日志静默
	modules = append(modules,
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
	)

	app := fx.New(modules...)
	if err := app.Err(); err != nil {
		return nil, fmt.Errorf("failed to build fx app: %w", err)
	}
	return app, nil
}
