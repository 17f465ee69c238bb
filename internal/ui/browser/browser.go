// Package browser is a read-only terminal tree of a schema document's
// models, fields and relations.
package browser

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/prismo/internal/schema"
	"github.com/sadopc/prismo/internal/theme"
)

// NodeKind represents the type of tree node.
type NodeKind int

const (
	NodeModel NodeKind = iota
	NodeField
	NodeRelationGroup
	NodeRelation
)

// TreeNode represents a node in the tree.
type TreeNode struct {
	Label    string
	Kind     NodeKind
	Children []*TreeNode
	Expanded bool
	Depth    int

	// Detail is shown under the tree while the node is selected.
	Detail string
	// Relation marks field nodes that point at another model.
	Relation bool
}

// Loader re-reads the document for the reload key.
type Loader func() (*schema.Document, error)

// LoadedMsg carries the result of a reload.
type LoadedMsg struct {
	Doc *schema.Document
	Err error
}

// Option configures a Model.
type Option func(*Model)

// WithTitle sets the title line, usually the schema path.
func WithTitle(title string) Option { return func(m *Model) { m.title = title } }

// WithTheme sets the theme. The default is theme.Current.
func WithTheme(th *theme.Theme) Option {
	return func(m *Model) {
		if th != nil {
			m.th = th
		}
	}
}

// WithLoader enables the reload key.
func WithLoader(l Loader) Option { return func(m *Model) { m.loader = l } }

// Model is the browser.
type Model struct {
	nodes  []*TreeNode
	flat   []*TreeNode // flattened visible nodes
	cursor int
	offset int
	width  int
	height int

	title  string
	th     *theme.Theme
	keys   KeyMap
	help   help.Model
	loader Loader
	err    error
}

// New creates a browser over doc.
func New(doc *schema.Document, opts ...Option) Model {
	m := Model{
		title: "Schema",
		th:    theme.Current,
		keys:  DefaultKeyMap(),
		help:  help.New(),
	}
	for _, o := range opts {
		o(&m)
	}
	if m.th == nil {
		m.th = theme.Default()
	}
	m.nodes = buildTree(doc)
	m.flatten()
	return m
}

// Init returns no initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles key, resize and reload messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)

	case LoadedMsg:
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.err = nil
		expanded := expandedLabels(m.nodes)
		m.nodes = buildTree(msg.Doc)
		for _, n := range m.nodes {
			if e, ok := expanded[n.Label]; ok {
				n.Expanded = e
			}
		}
		m.flatten()
		m.ensureVisible()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
				m.ensureVisible()
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.flat)-1 {
				m.cursor++
				m.ensureVisible()
			}
		case key.Matches(msg, m.keys.Expand):
			m.toggle()
		case key.Matches(msg, m.keys.Collapse):
			m.collapse()
		case key.Matches(msg, m.keys.Top):
			m.cursor = 0
			m.offset = 0
		case key.Matches(msg, m.keys.Bottom):
			m.cursor = max(len(m.flat)-1, 0)
			m.ensureVisible()
		case key.Matches(msg, m.keys.Reload):
			if m.loader != nil {
				return m, m.reload()
			}
		}
	}

	return m, nil
}

// View renders the browser.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	th := m.th
	innerW := max(m.width-2, 1)

	var b strings.Builder
	b.WriteString(th.BrowserTitle.Render(m.title))
	b.WriteString("\n")

	if len(m.flat) == 0 {
		b.WriteString("\n  No models in this document.")
	} else {
		end := min(m.offset+m.treeHeight(), len(m.flat))
		lines := make([]string, 0, end-m.offset)
		for i := m.offset; i < end; i++ {
			lines = append(lines, m.renderNode(m.flat[i], i == m.cursor, innerW))
		}
		b.WriteString(strings.Join(lines, "\n"))
	}

	b.WriteString("\n\n")
	switch {
	case m.err != nil:
		b.WriteString(th.Error.Render("reload failed: " + m.err.Error()))
	case m.cursor < len(m.flat):
		b.WriteString(th.BrowserDetail.Render(m.flat[m.cursor].Detail))
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return th.BrowserBorder.Width(innerW).Render(b.String())
}

// treeHeight is the number of tree rows that fit: the border, title, blank
// line, detail line and help line take the rest.
func (m Model) treeHeight() int {
	rows := m.height - 6
	if m.help.ShowAll {
		rows -= 3
	}
	return max(rows, 1)
}

func (m Model) renderNode(node *TreeNode, selected bool, width int) string {
	indent := strings.Repeat("  ", node.Depth)

	expandIcon := "  "
	if len(node.Children) > 0 {
		if node.Expanded {
			expandIcon = "▼ "
		} else {
			expandIcon = "▶ "
		}
	}

	line := truncate(indent+expandIcon+node.Label, width-2)
	if selected {
		return m.th.BrowserSelected.Render(line)
	}

	switch node.Kind {
	case NodeModel, NodeRelationGroup:
		return m.th.ModelName.Render(line)
	case NodeRelation:
		return m.th.FieldRelation.Render(line)
	default:
		if node.Relation {
			return m.th.FieldRelation.Render(line)
		}
		return m.th.FieldName.Render(line)
	}
}

func truncate(s string, width int) string {
	r := []rune(s)
	if width < 1 || len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}

func (m *Model) toggle() {
	if m.cursor >= len(m.flat) {
		return
	}
	node := m.flat[m.cursor]
	if len(node.Children) > 0 {
		node.Expanded = !node.Expanded
		m.flatten()
	}
}

// collapse folds the selected node, or jumps to its parent when it is a leaf
// or already folded.
func (m *Model) collapse() {
	if m.cursor >= len(m.flat) {
		return
	}
	node := m.flat[m.cursor]
	if node.Expanded {
		node.Expanded = false
		m.flatten()
		return
	}
	for i := m.cursor - 1; i >= 0; i-- {
		if m.flat[i].Depth < node.Depth {
			m.cursor = i
			m.ensureVisible()
			return
		}
	}
}

func (m Model) reload() tea.Cmd {
	load := m.loader
	return func() tea.Msg {
		doc, err := load()
		return LoadedMsg{Doc: doc, Err: err}
	}
}

func (m *Model) flatten() {
	m.flat = nil
	for _, node := range m.nodes {
		m.flattenNode(node)
	}
	if m.cursor >= len(m.flat) {
		m.cursor = len(m.flat) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) flattenNode(node *TreeNode) {
	m.flat = append(m.flat, node)
	if node.Expanded {
		for _, child := range node.Children {
			m.flattenNode(child)
		}
	}
}

func (m *Model) ensureVisible() {
	h := m.treeHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
}

// SetSize sets the browser dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = max(width-2, 0)
	m.ensureVisible()
}

// Selected returns the node under the cursor, or nil for an empty tree.
func (m Model) Selected() *TreeNode {
	if m.cursor >= len(m.flat) {
		return nil
	}
	return m.flat[m.cursor]
}

func expandedLabels(nodes []*TreeNode) map[string]bool {
	out := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		out[n.Label] = n.Expanded
	}
	return out
}

func buildTree(doc *schema.Document) []*TreeNode {
	if doc == nil {
		return nil
	}
	models := doc.Models()

	var nodes []*TreeNode
	for _, mdl := range models {
		mn := &TreeNode{
			Label:    mdl.Name,
			Kind:     NodeModel,
			Expanded: len(models) == 1,
			Detail:   fmt.Sprintf("model %s · %d fields · line %d", mdl.Name, len(mdl.Fields), mdl.Line),
		}
		for _, f := range mdl.Fields {
			mn.Children = append(mn.Children, &TreeNode{
				Label:    f.Name + " " + f.TypeToken(),
				Kind:     NodeField,
				Depth:    1,
				Detail:   f.Declaration(),
				Relation: f.IsRelation(),
			})
		}
		nodes = append(nodes, mn)
	}

	if links := doc.Relations(); len(links) > 0 {
		group := &TreeNode{
			Label:  fmt.Sprintf("Relations (%d)", len(links)),
			Kind:   NodeRelationGroup,
			Detail: "relations derived from relation fields",
		}
		for _, l := range links {
			group.Children = append(group.Children, &TreeNode{
				Label:  l.String(),
				Kind:   NodeRelation,
				Depth:  1,
				Detail: fmt.Sprintf("%s -> %s, field %s", l.From, l.To, l.Field),
			})
		}
		nodes = append(nodes, group)
	}

	return nodes
}
