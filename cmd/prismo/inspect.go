package main

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sadopc/prismo/internal/highlight"
	"github.com/sadopc/prismo/internal/output"
	"github.com/sadopc/prismo/internal/schema"
	"github.com/sadopc/prismo/internal/suggest"
	"github.com/sadopc/prismo/internal/ui/browser"
)

type fieldView struct {
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Kind       string   `json:"kind"`
	List       bool     `json:"list,omitempty"`
	Optional   bool     `json:"optional,omitempty"`
	Attributes []string `json:"attributes,omitempty"`
}

type modelView struct {
	Name   string      `json:"name"`
	Line   int         `json:"line"`
	Fields []fieldView `json:"fields"`
}

type linkView struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Field   string `json:"field"`
	Kind    string `json:"kind"`
	Cascade bool   `json:"cascade,omitempty"`
}

type listData struct {
	Schema    string      `json:"schema"`
	Models    []modelView `json:"models"`
	Relations []linkView  `json:"relations"`
}

func newModelView(m *schema.Model) modelView {
	mv := modelView{Name: m.Name, Line: m.Line, Fields: make([]fieldView, 0, len(m.Fields))}
	for _, f := range m.Fields {
		mv.Fields = append(mv.Fields, fieldView{
			Name:       f.Name,
			Type:       f.Type,
			Kind:       f.Kind.String(),
			List:       f.List,
			Optional:   f.Optional,
			Attributes: f.Attributes,
		})
	}
	return mv
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List models, their fields and relations",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.ws.Load(cmd.Context())
			if err != nil {
				return a.fail(cmd, err, "")
			}

			if a.out.JSON() {
				data := listData{Schema: a.ws.Path(), Models: []modelView{}, Relations: []linkView{}}
				for _, m := range doc.Models() {
					data.Models = append(data.Models, newModelView(m))
				}
				for _, l := range doc.Relations() {
					data.Relations = append(data.Relations, linkView{
						From: l.From, To: l.To, Field: l.Field, Kind: l.Kind.String(), Cascade: l.Cascade,
					})
				}
				return a.out.Emit(output.Envelope{OK: true, Command: "list", Data: data})
			}

			models := doc.Models()
			if len(models) == 0 {
				a.out.Info("no models in %s", a.ws.Path())
				return nil
			}

			th := a.out.Theme()
			a.out.Title("Models in %s", a.ws.Path())
			for _, m := range models {
				a.out.Println(a.out.Style(th.ModelName, m.Name) + a.out.Style(th.Muted, fmt.Sprintf(" (line %d)", m.Line)))
				for _, f := range m.Fields {
					a.out.Println("  " + a.fieldLine(f))
				}
			}

			if links := doc.Relations(); len(links) > 0 {
				a.out.Title("Relations")
				for _, l := range links {
					a.out.Println("  " + a.out.Style(th.FieldRelation, l.String()))
				}
			}
			return nil
		},
	}
}

func (a *app) fieldLine(f schema.Field) string {
	th := a.out.Theme()
	typeStyle := th.FieldType
	if f.IsRelation() {
		typeStyle = th.FieldRelation
	}
	parts := []string{a.out.Style(th.FieldName, f.Name), a.out.Style(typeStyle, f.TypeToken())}
	for _, attr := range f.Attributes {
		parts = append(parts, a.out.Style(th.Attribute, attr))
	}
	return strings.Join(parts, " ")
}

type showData struct {
	modelView
	Text string `json:"text"`
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <model>",
		Short: "Print one model block",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.ws.Load(cmd.Context())
			if err != nil {
				return a.fail(cmd, err, "")
			}

			m, ok := doc.Model(schema.NormalizeModelName(args[0]))
			if !ok {
				m, ok = doc.Model(args[0])
			}
			if !ok {
				err := &schema.EditError{Kind: schema.KindModelNotFound, Model: schema.NormalizeModelName(args[0])}
				hint, _ := suggest.DidYouMean(args[0], doc.ModelNames())
				return a.fail(cmd, err, hint)
			}

			text := doc.Block(m)
			if a.out.JSON() {
				return a.out.Emit(output.Envelope{OK: true, Command: "show", Data: showData{modelView: newModelView(m), Text: text}})
			}
			if a.out.Colored() {
				text = highlight.New().Highlight(text, a.out.Theme())
			}
			a.out.Block(text)
			return nil
		},
	}
}

func (a *app) browseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse models and relations in a terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.out.JSON() {
				return a.fail(cmd, errors.New("browse is interactive and has no JSON output"), "")
			}
			ctx := cmd.Context()
			doc, err := a.ws.Load(ctx)
			if err != nil {
				return a.fail(cmd, err, "")
			}

			model := browser.New(doc,
				browser.WithTitle(a.ws.Path()),
				browser.WithTheme(a.out.Theme()),
				browser.WithLoader(func() (*schema.Document, error) { return a.ws.Load(ctx) }),
			)
			p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("error running browser: %w", err)
			}
			return nil
		},
	}
}
