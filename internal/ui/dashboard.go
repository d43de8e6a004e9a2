// Package ui renders the dashboard page.
package ui

import "strconv"

//go:generate templ generate

// PageData is everything the dashboard needs to render its form
type PageData struct {
	Algorithms   []string
	Functions    []string
	Initializers []string

	// Selected defaults
	Algorithm   string
	Function    string
	Initializer string
	Epochs      int
	PopSize     int
	Sleep       float64 // seconds
	Threshold   float64
}

// field is one numeric input of the form
type field struct {
	Name  string
	Label string
	Step  string
	Value string
}

func (d PageData) numberFields() []field {
	return []field{
		{Name: "epochs", Label: "Epochs", Step: "1", Value: strconv.Itoa(d.Epochs)},
		{Name: "pop_size", Label: "Population", Step: "1", Value: strconv.Itoa(d.PopSize)},
		{Name: "sleep", Label: "Delay (s)", Step: "0.01", Value: formatFloat(d.Sleep)},
		{Name: "threshold", Label: "Stop threshold", Step: "any", Value: formatFloat(d.Threshold)},
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
