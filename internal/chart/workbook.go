package chart

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"
)

const (
	chartsSheet = "Charts"
	dataSheet   = "Data"
	// rowsPerChart spaces charts vertically on the charts sheet.
	rowsPerChart = 20
)

var excelTypes = map[Kind]excelize.ChartType{
	Bar:     excelize.Col,
	Line:    excelize.Line,
	Scatter: excelize.Scatter,
	Area:    excelize.Area,
	Pie:     excelize.Pie,
	BarH:    excelize.Bar,
}

// WorkbookRenderer collects charts into an xlsx workbook: the plotted pairs
// go to a data sheet, native Excel charts to a charts sheet.
type WorkbookRenderer struct {
	f *excelize.File
	n int
}

// NewWorkbookRenderer creates an empty workbook.
func NewWorkbookRenderer() (*WorkbookRenderer, error) {
	f := excelize.NewFile()
	idx, err := f.NewSheet(chartsSheet)
	if err != nil {
		return nil, fmt.Errorf("create charts sheet: %w", err)
	}
	if _, err := f.NewSheet(dataSheet); err != nil {
		return nil, fmt.Errorf("create data sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")
	return &WorkbookRenderer{f: f}, nil
}

// Render writes c's points as two data columns and adds a chart over them.
func (r *WorkbookRenderer) Render(c Chart) error {
	labelCol := r.n*2 + 1
	valueCol := labelCol + 1
	r.n++

	labelHead := "index"
	valueHead := c.Column
	if c.Kind.Frequency() {
		labelHead, valueHead = c.Column, "count"
	}
	if err := r.set(labelCol, 1, labelHead); err != nil {
		return err
	}
	if err := r.set(valueCol, 1, valueHead); err != nil {
		return err
	}
	for i, p := range c.Points {
		if err := r.set(labelCol, i+2, p.Label); err != nil {
			return err
		}
		var v any = p.Value
		if math.IsNaN(p.Value) {
			v = p.Display
		}
		if err := r.set(valueCol, i+2, v); err != nil {
			return err
		}
	}
	if len(c.Points) == 0 {
		return nil
	}

	cats, err := r.ref(labelCol, len(c.Points))
	if err != nil {
		return err
	}
	vals, err := r.ref(valueCol, len(c.Points))
	if err != nil {
		return err
	}
	name, err := excelize.CoordinatesToCellName(valueCol, 1, true)
	if err != nil {
		return err
	}
	ch := &excelize.Chart{
		Type:   excelTypes[c.Kind],
		Series: []excelize.ChartSeries{{Name: dataSheet + "!" + name, Categories: cats, Values: vals}},
		Title:  []excelize.RichTextRun{{Text: c.Title}},
	}
	switch c.Kind {
	case Pie:
		ch.PlotArea = excelize.ChartPlotArea{ShowPercent: true, ShowCatName: true}
	case BarH:
		ch.XAxis = excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: c.Column}}}
		ch.YAxis = excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "Count"}}}
	case Scatter:
		ch.XAxis = excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "Index"}}}
		ch.YAxis = excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: c.Column}}}
	}
	anchor, err := excelize.CoordinatesToCellName(1, (r.n-1)*rowsPerChart+1)
	if err != nil {
		return err
	}
	if err := r.f.AddChart(chartsSheet, anchor, ch); err != nil {
		return fmt.Errorf("add %s chart: %w", c.Kind, err)
	}
	return nil
}

func (r *WorkbookRenderer) set(col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return r.f.SetCellValue(dataSheet, cell, v)
}

// ref returns the absolute range of n data cells below the header of col.
func (r *WorkbookRenderer) ref(col, n int) (string, error) {
	from, err := excelize.CoordinatesToCellName(col, 2, true)
	if err != nil {
		return "", err
	}
	to, err := excelize.CoordinatesToCellName(col, n+1, true)
	if err != nil {
		return "", err
	}
	return dataSheet + "!" + from + ":" + to, nil
}

// Save writes the workbook to path.
func (r *WorkbookRenderer) Save(path string) error {
	if err := r.f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// Close releases the workbook.
func (r *WorkbookRenderer) Close() error { return r.f.Close() }
