package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"studylog/internal/store"
	"studylog/internal/tracker"
)

// tagsModel manages the tag registry: list, create, edit, delete.
type tagsModel struct {
	manager *tracker.Manager
	width   int
	height  int

	tags   []store.Tag
	cursor int

	formActive bool
	form       *huh.Form
	editingID  string // empty when creating
	fName      string
	fColor     string
	fIcon      string

	confirmDelete bool
	confirmForm   *huh.Form
	confirmed     bool
}

func newTagsModel(manager *tracker.Manager) tagsModel {
	return tagsModel{manager: manager}
}

func (t tagsModel) Init() tea.Cmd {
	return t.loadData()
}

func (t *tagsModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

type tagsDataMsg struct {
	tags []store.Tag
}

func (t tagsModel) loadData() tea.Cmd {
	return func() tea.Msg {
		tags, err := t.manager.Tags()
		if err != nil {
			return statusMsg{text: fmt.Sprintf("load tags: %v", err), isError: true}
		}
		return tagsDataMsg{tags: tags}
	}
}

func (t tagsModel) update(msg tea.Msg) (tagsModel, tea.Cmd) {
	if t.formActive {
		return t.updateForm(msg)
	}
	if t.confirmDelete {
		return t.updateConfirm(msg)
	}

	switch msg := msg.(type) {
	case tagsDataMsg:
		t.tags = msg.tags
		if t.cursor >= len(t.tags) {
			t.cursor = max(0, len(t.tags)-1)
		}
		return t, nil

	case tagSavedMsg:
		return t, t.loadData()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if t.cursor > 0 {
				t.cursor--
			}
		case key.Matches(msg, keys.Down):
			if t.cursor < len(t.tags)-1 {
				t.cursor++
			}
		case key.Matches(msg, keys.New):
			return t.openForm(nil)
		case key.Matches(msg, keys.Edit):
			if len(t.tags) > 0 {
				tag := t.tags[t.cursor]
				return t.openForm(&tag)
			}
		case key.Matches(msg, keys.Delete):
			if len(t.tags) > 0 {
				return t.openConfirm()
			}
		}
	}
	return t, nil
}

func (t tagsModel) openForm(tag *store.Tag) (tagsModel, tea.Cmd) {
	if tag != nil {
		t.editingID = tag.ID
		t.fName = tag.Name
		t.fColor = tag.Color
		t.fIcon = tag.Icon
	} else {
		t.editingID = ""
		t.fName = ""
		t.fColor = tagColors[0]
		t.fIcon = tagIcons[0]
	}

	colorOpts := make([]huh.Option[string], 0, len(tagColors))
	for _, c := range tagColors {
		colorOpts = append(colorOpts, huh.NewOption(c, c))
	}
	iconOpts := make([]huh.Option[string], 0, len(tagIcons))
	for _, ic := range tagIcons {
		iconOpts = append(iconOpts, huh.NewOption(fmt.Sprintf("%s %s", iconGlyph(ic), ic), ic))
	}

	title := "New Tag"
	if tag != nil {
		title = "Edit Tag"
	}

	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Prompt("Name: ").
				Value(&t.fName).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Color").
				Options(colorOpts...).
				Value(&t.fColor),
			huh.NewSelect[string]().
				Title("Icon").
				Options(iconOpts...).
				Value(&t.fIcon),
		),
	)
	t.formActive = true
	return t, t.form.Init()
}

func (t tagsModel) updateForm(msg tea.Msg) (tagsModel, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok && key.Matches(kmsg, keys.Back) {
		t.formActive = false
		t.form = nil
		return t, nil
	}

	form, cmd := t.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		t.form = f
	}

	if t.form.State == huh.StateCompleted {
		t.formActive = false
		t.form = nil
		id, name, color, icon := t.editingID, t.fName, t.fColor, t.fIcon
		return t, func() tea.Msg {
			if id == "" {
				tag, err := t.manager.AddTag(name)
				if err != nil {
					return statusMsg{text: fmt.Sprintf("create tag: %v", err), isError: true}
				}
				id = tag.ID
			}
			patch := store.TagPatch{Name: &name, Color: &color, Icon: &icon}
			if err := t.manager.UpdateTag(id, patch); err != nil {
				return statusMsg{text: fmt.Sprintf("save tag: %v", err), isError: true}
			}
			return tagSavedMsg{}
		}
	}
	return t, cmd
}

func (t tagsModel) openConfirm() (tagsModel, tea.Cmd) {
	tag := t.tags[t.cursor]
	t.confirmed = false
	t.confirmForm = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %q and all of its study history?", tag.Name)).
				Affirmative("Delete").
				Negative("Keep").
				Value(&t.confirmed),
		),
	)
	t.confirmDelete = true
	return t, t.confirmForm.Init()
}

func (t tagsModel) updateConfirm(msg tea.Msg) (tagsModel, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok && key.Matches(kmsg, keys.Back) {
		t.confirmDelete = false
		t.confirmForm = nil
		return t, nil
	}

	form, cmd := t.confirmForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		t.confirmForm = f
	}

	if t.confirmForm.State == huh.StateCompleted {
		t.confirmDelete = false
		t.confirmForm = nil
		if !t.confirmed || t.cursor >= len(t.tags) {
			return t, nil
		}
		id := t.tags[t.cursor].ID
		return t, func() tea.Msg {
			if err := t.manager.DeleteTag(id); err != nil {
				return statusMsg{text: fmt.Sprintf("delete tag: %v", err), isError: true}
			}
			return tagSavedMsg{}
		}
	}
	return t, cmd
}

func (t tagsModel) view() string {
	w := t.width - 4

	if t.formActive && t.form != nil {
		return panelStyle.Width(w).Render(t.form.View())
	}
	if t.confirmDelete && t.confirmForm != nil {
		return panelStyle.Width(w).Render(t.confirmForm.View())
	}

	var rows []string
	rows = append(rows, titleStyle.Render("Tags"), "")

	if len(t.tags) == 0 {
		rows = append(rows, mutedStyle.Render("No tags yet. Press n to create one."))
	}
	for i, tag := range t.tags {
		marker := "  "
		style := normalItemStyle
		if i == t.cursor {
			marker = "> "
			style = selectedItemStyle
		}
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(tag.Color)).Render(iconGlyph(tag.Icon))
		rows = append(rows, style.Render(fmt.Sprintf("%s%s %-24s", marker, dot, tag.Name))+
			mutedStyle.Render(tag.Color))
	}

	rows = append(rows, "", mutedStyle.Render("  n: new  e: edit  d: delete"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
