package main

import (
	"fmt"

	"github.com/guptarohit/asciigraph"

	"github.com/jgoulah/gridprofile/pkg/models"
)

const chartHeight = 8

// projectionChart plots the expected kWh of each projected month
func projectionChart(pr models.ProjectionResult) string {
	if len(pr.Months) == 0 {
		return ""
	}
	data := make([]float64, len(pr.Months))
	for i, m := range pr.Months {
		data[i] = m.ExpectedKWh
	}
	caption := fmt.Sprintf("expected kWh, %s to %s", pr.Months[0].Period, pr.Months[len(pr.Months)-1].Period)
	return asciigraph.Plot(data,
		asciigraph.Height(chartHeight),
		asciigraph.Width(len(data)*4),
		asciigraph.Caption(caption),
	)
}
