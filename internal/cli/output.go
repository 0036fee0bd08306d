package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

// descriptionWidth — сколько символов описания помещается в колонку таблицы.
const descriptionWidth = 40

var workRequestHeaders = []string{"ID", "TITLE", "DESCRIPTION", "CREATED"}

// Output печатает результаты команд: таблицей для человека
// или JSON для скриптов (--json). Сообщения идут в stderr,
// чтобы stdout оставался пригодным для разбора.
type Output struct {
	jsonMode bool
	w        io.Writer
	errW     io.Writer
}

// NewOutput создаёт Output поверх stdout/stderr.
func NewOutput(jsonMode bool) *Output {
	return NewOutputTo(jsonMode, os.Stdout, os.Stderr)
}

// NewOutputTo создаёт Output с заданными потоками.
func NewOutputTo(jsonMode bool, w, errW io.Writer) *Output {
	return &Output{jsonMode: jsonMode, w: w, errW: errW}
}

// Created печатает ответ на создание work request.
func (o *Output) Created(c *CreatedResponse) {
	fmt.Fprintf(o.errW, "Work request created: %s\n", c.ID)
	if o.jsonMode {
		o.json(c)
		return
	}
	o.table([]string{"ID", "EVENT", "CORRELATION"}, [][]string{{c.ID, c.EventID, c.CorrelationID}})
}

// WorkRequest печатает одну заявку.
func (o *Output) WorkRequest(wr *WorkRequestResponse) {
	if o.jsonMode {
		o.json(wr)
		return
	}
	o.table(workRequestHeaders, [][]string{workRequestRow(*wr)})
}

// WorkRequests печатает список заявок.
func (o *Output) WorkRequests(items []WorkRequestResponse) {
	if o.jsonMode {
		o.json(items)
		return
	}
	rows := make([][]string, len(items))
	for i, wr := range items {
		rows[i] = workRequestRow(wr)
	}
	o.table(workRequestHeaders, rows)
}

func workRequestRow(wr WorkRequestResponse) []string {
	return []string{wr.ID, wr.Title, truncate(oneLine(wr.Description), descriptionWidth), wr.CreatedAt}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func (o *Output) table(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	dashes := make([]string, len(headers))
	for i, h := range headers {
		dashes[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(dashes, "\t"))

	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	tw.Flush()
}

func (o *Output) json(v any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}
