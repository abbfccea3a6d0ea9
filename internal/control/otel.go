package control

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/philipswan/TetheredRing-sub000/internal/control"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
