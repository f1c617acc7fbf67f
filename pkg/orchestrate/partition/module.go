package partition

import (
	port "github.com/lumapix/darkroom/pkg/orchestrate/core/port"
	"go.uber.org/fx"
)

// Module defines the Fx options for partitioning components.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewSizedPartitioner,
		fx.As(new(port.Partitioner)),
	)),
)
