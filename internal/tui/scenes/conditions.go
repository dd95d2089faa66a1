package scenes

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"safevision-console/internal/condition"
	"safevision-console/internal/tui/styles"
)

// Submitter pushes a condition to the backend as a detection rule.
// rules.Submitter satisfies this.
type Submitter interface {
	Submit(ctx context.Context, c condition.Condition) (string, error)
}

// ConditionsScene manages the local detection condition set.
type ConditionsScene struct {
	conditions *condition.Store
	submitter  Submitter

	list    []condition.Condition
	notice  string
	width   int
	height  int
	cursor  int
	maxRows int
}

// conditionsMsg carries the current condition list
type conditionsMsg struct {
	list []condition.Condition
}

// submitMsg carries the outcome of a rule submission
type submitMsg struct {
	name string
	body string
	err  error
}

// NewConditionsScene creates a new conditions scene
func NewConditionsScene(conditions *condition.Store, submitter Submitter) *ConditionsScene {
	return &ConditionsScene{
		conditions: conditions,
		submitter:  submitter,
		maxRows:    10,
	}
}

// Init initializes the conditions scene
func (c *ConditionsScene) Init() tea.Cmd {
	return c.refresh()
}

func (c *ConditionsScene) refresh() tea.Cmd {
	return func() tea.Msg {
		return conditionsMsg{list: c.conditions.List()}
	}
}

func (c *ConditionsScene) submit(cond condition.Condition) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		body, err := c.submitter.Submit(ctx, cond)
		return submitMsg{name: cond.Name, body: body, err: err}
	}
}

// TickCmd returns a command that ticks every interval
func (c *ConditionsScene) TickCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return TickMsg{Scene: "conditions", Time: t}
	})
}

// Update handles messages for the conditions scene
func (c *ConditionsScene) Update(msg tea.Msg) (*ConditionsScene, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		c.width = msg.Width
		c.height = msg.Height
		c.maxRows = max(5, c.height-12)
		return c, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if c.cursor > 0 {
				c.cursor--
			}
		case "down", "j":
			if c.cursor < len(c.list)-1 {
				c.cursor++
			}
		case "+", "=":
			return c, c.adjustRate(1)
		case "-":
			return c, c.adjustRate(-1)
		case "enter", "s":
			if c.cursor < len(c.list) {
				selected := c.list[c.cursor]
				c.notice = fmt.Sprintf("Submitting %q...", selected.Name)
				return c, c.submit(selected)
			}
		case "d":
			if c.cursor < len(c.list) {
				selected := c.list[c.cursor]
				if err := c.conditions.Delete(selected.ID); err != nil {
					c.notice = err.Error()
				} else {
					c.notice = fmt.Sprintf("Deleted %q", selected.Name)
				}
				return c, c.refresh()
			}
		}
		return c, nil

	case conditionsMsg:
		c.list = msg.list
		if c.cursor >= len(c.list) {
			c.cursor = max(0, len(c.list)-1)
		}
		return c, nil

	case submitMsg:
		if msg.err != nil {
			c.notice = fmt.Sprintf("Submit %q failed: %v", msg.name, msg.err)
		} else {
			c.notice = fmt.Sprintf("Submitted %q: %s", msg.name, truncate(msg.body, 60))
		}
		return c, nil

	case TickMsg:
		if msg.Scene == "conditions" {
			return c, c.refresh()
		}
		return c, nil
	}

	return c, nil
}

// adjustRate bumps the selected condition's rate within bounds.
func (c *ConditionsScene) adjustRate(delta int) tea.Cmd {
	if c.cursor >= len(c.list) {
		return nil
	}
	cond := c.list[c.cursor]
	rate := cond.Rate + delta
	if rate < condition.MinRate || rate > condition.MaxRate {
		return nil
	}
	cond.Rate = rate
	if err := c.conditions.Upsert(cond); err != nil {
		c.notice = err.Error()
		return nil
	}
	return c.refresh()
}

// View renders the condition list
func (c *ConditionsScene) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("  Detection Conditions"))
	b.WriteString("\n\n")

	if len(c.list) == 0 {
		b.WriteString(styles.Muted.Render("  No conditions configured."))
		return b.String()
	}

	header := fmt.Sprintf("  %-24s %-16s %-6s %-10s %s",
		"Name", "Type", "Rate", "Severity", "Duration")
	b.WriteString(styles.TableHeader.Render(header))
	b.WriteString("\n")

	endIdx := min(c.maxRows, len(c.list))
	for i, cond := range c.list[:endIdx] {
		b.WriteString(c.renderConditionRow(cond, i == c.cursor))
		b.WriteString("\n")
	}

	b.WriteString(styles.Muted.Render("\n  [Enter] Submit as rule  [+/-] Rate  [d] Delete"))

	if c.notice != "" {
		b.WriteString("\n")
		b.WriteString(styles.Subtitle.Render("  " + c.notice))
	}

	return b.String()
}

func (c *ConditionsScene) renderConditionRow(cond condition.Condition, selected bool) string {
	severity := condition.SeverityForRate(cond.Rate)
	row := fmt.Sprintf("  %-24s %-16s %-6d %-10s %ds",
		truncate(cond.Name, 24),
		cond.Type.Label(),
		cond.Rate,
		severity,
		cond.DurationSec)

	if selected {
		return styles.TableRowSelected.Render(row)
	}
	return row
}
