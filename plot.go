package jointcaster

import (
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// LineFrameSeries generates an echart multi-line chart for arbitrary
// frame-indexed series. All series must have the same length.
func LineFrameSeries(title string, seriesName []string, y [][]float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
	)

	var frames []int
	if len(y) > 0 {
		frames = make([]int, len(y[0]))
		for i := range frames {
			frames[i] = i
		}
	}

	line = line.SetXAxis(frames)
	for i, series := range seriesName {
		lineData := make([]opts.LineData, 0, len(y[i]))
		for _, v := range y[i] {
			lineData = append(lineData, opts.LineData{Value: v})
		}
		line = line.AddSeries(series, lineData)
	}
	return line
}

// LineForecast generates an echart line chart plotting the forecast
// against the actual joint angles.
func LineForecast(res *Result) *charts.Line {
	return LineFrameSeries(
		"Joint Angle Forecast",
		[]string{"Actual", "Predicted"},
		[][]float64{res.Actual, res.Predicted},
	)
}

// PlotForecast uses the Apache Echarts library to generate an html
// file showing the forecast against the actual values along with the
// forecast error per frame.
func (f *Forecaster) PlotForecast(path string, res *Result) error {
	if !f.trained {
		return ErrNotFitted
	}

	errSeries := make([]float64, len(res.Predicted))
	for i := range res.Predicted {
		errSeries[i] = res.Actual[i] - res.Predicted[i]
	}

	page := components.NewPage()
	page.AddCharts(
		LineForecast(res),
		LineFrameSeries(
			"Forecast Error",
			[]string{"Error"},
			[][]float64{errSeries},
		),
	)
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	return page.Render(io.MultiWriter(file))
}
