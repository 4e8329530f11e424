// Package display renders health metric cards for terminal output.
package display

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	loadingValue = "..."
	missingValue = "--"

	maxFractionDigits = 3
)

// Card is one formatted metric.
type Card struct {
	Title  string
	Value  string
	Unit   string // empty unless a value is shown
	Failed bool
}

var printer = message.NewPrinter(language.English)

// FormatValue renders "..." while loading, "--" when the value is absent or
// failed, and a grouped number otherwise (8123 -> "8,123").
func FormatValue(value *float64, loading, failed bool) string {
	switch {
	case loading:
		return loadingValue
	case failed || value == nil:
		return missingValue
	default:
		return printer.Sprint(number.Decimal(*value, number.MaxFractionDigits(maxFractionDigits)))
	}
}

// FormatCard builds a card; the unit is dropped when no value is shown.
func FormatCard(title string, value *float64, unit string, loading, failed bool) Card {
	c := Card{
		Title:  title,
		Value:  FormatValue(value, loading, failed),
		Failed: failed,
	}
	if !loading && !failed && value != nil {
		c.Unit = unit
	}
	return c
}

func (c Card) String() string {
	if c.Unit == "" {
		return fmt.Sprintf("%s: %s", c.Title, c.Value)
	}
	return fmt.Sprintf("%s: %s %s", c.Title, c.Value, c.Unit)
}

// Render writes one line per card, red for failed ones.
func Render(w io.Writer, cards ...Card) error {
	title := color.New(color.Bold)
	failed := color.New(color.FgRed)
	value := color.New(color.FgGreen)
	faint := color.New(color.Faint)

	for _, c := range cards {
		v := value.Sprint(c.Value)
		if c.Failed {
			v = failed.Sprint(c.Value)
		}
		line := fmt.Sprintf("%s  %s", title.Sprint(c.Title), v)
		if c.Unit != "" {
			line += " " + faint.Sprint(c.Unit)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
