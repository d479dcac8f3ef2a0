package api

import (
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/jackzampolin/storyboard/internal/backends"
	"github.com/jackzampolin/storyboard/internal/llmcall"
	"github.com/jackzampolin/storyboard/internal/types"
)

// Alignment of a table column.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

// Tabular is data that can be rendered as rows.
type Tabular interface {
	Headers() []string
	Rows() [][]string
	Aligns() []Alignment
}

func newWriter(t Tabular) table.Writer {
	headers := t.Headers()
	columns := len(headers)

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range t.Rows() {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	aligns := t.Aligns()
	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == AlignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)
	return tw
}

// RenderTable renders t as a rounded box table.
func RenderTable(t Tabular) string {
	if len(t.Headers()) == 0 {
		return ""
	}
	return newWriter(t).Render()
}

// RenderCSV renders t as CSV with a header row.
func RenderCSV(t Tabular) string {
	if len(t.Headers()) == 0 {
		return ""
	}
	return newWriter(t).RenderCSV()
}

// ShotTable renders shots, one row each.
type ShotTable []types.Shot

func (ShotTable) Headers() []string {
	return []string{"#", "Voice", "Emotion", "Intensity", "Assets", "Dialogue", "Fusion Prompt", "Motion Prompt"}
}

func (s ShotTable) Rows() [][]string {
	rows := make([][]string, len(s))
	for i, shot := range s {
		rows[i] = []string{
			strconv.Itoa(shot.ShotNumber),
			shot.VoiceCharacter,
			string(shot.Emotion),
			string(shot.Intensity),
			shot.Assets,
			shot.Dialogue,
			shot.FusionPrompt,
			shot.MotionPrompt,
		}
	}
	return rows
}

func (ShotTable) Aligns() []Alignment {
	return []Alignment{AlignRight}
}

// CallTable renders call log entries without their responses.
type CallTable []llmcall.Call

func (CallTable) Headers() []string {
	return []string{"Time", "Run", "Prompt", "Category", "Model", "Latency", "OK", "Error"}
}

func (c CallTable) Rows() [][]string {
	rows := make([][]string, len(c))
	for i, call := range c {
		run := call.RunID
		if len(run) > 8 {
			run = run[:8]
		}
		rows[i] = []string{
			call.Timestamp.Local().Format(time.DateTime),
			run,
			call.PromptKey,
			call.Category,
			call.Model,
			(time.Duration(call.LatencyMs) * time.Millisecond).String(),
			strconv.FormatBool(call.Success),
			call.Error,
		}
	}
	return rows
}

func (CallTable) Aligns() []Alignment {
	return []Alignment{AlignLeft, AlignLeft, AlignLeft, AlignLeft, AlignLeft, AlignRight}
}

// CategoryTable renders the backend dispatch table.
type CategoryTable []backends.CategoryInfo

func (CategoryTable) Headers() []string {
	return []string{"Category", "Provider", "Timeout", "First Class"}
}

func (c CategoryTable) Rows() [][]string {
	rows := make([][]string, len(c))
	for i, cat := range c {
		first := ""
		if cat.FirstClass {
			first = "yes"
		}
		rows[i] = []string{cat.Name, cat.Provider, cat.Timeout.String(), first}
	}
	return rows
}

func (CategoryTable) Aligns() []Alignment {
	return []Alignment{AlignLeft, AlignLeft, AlignRight}
}

// RuleTable renders prefix routing rules in match order.
type RuleTable []backends.Rule

func (RuleTable) Headers() []string {
	return []string{"Order", "Prefix", "Category"}
}

func (r RuleTable) Rows() [][]string {
	rows := make([][]string, len(r))
	for i, rule := range r {
		rows[i] = []string{strconv.Itoa(i + 1), strings.ToLower(rule.Prefix) + "*", rule.Category}
	}
	return rows
}

func (RuleTable) Aligns() []Alignment {
	return []Alignment{AlignRight}
}
