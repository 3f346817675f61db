// Package tui renders the chat widget in a terminal with tview. It is a thin
// surface over the widget core: it draws state and forwards key events.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/tourvia/tourchat/pkg/chat"
	"github.com/tourvia/tourchat/pkg/config"
	"github.com/tourvia/tourchat/pkg/format"
	"github.com/tourvia/tourchat/pkg/widget"
)

// Terminal cells approximate 8px glyphs, so the stock 768px viewport
// threshold maps to a 96-column terminal.
const pixelsPerCell = 8

const (
	pageLauncher = "launcher"
	pagePanel    = "panel"
	pageFallback = "fallback"
)

// App is the terminal frontend.
type App struct {
	app      *tview.Application
	widget   *widget.Widget
	cfg      config.WidgetConfig
	boundary *widget.RenderBoundary

	pages      *tview.Pages
	transcript *tview.TextView
	typingBar  *tview.TextView
	input      *tview.InputField
}

func New(cfg config.WidgetConfig, w *widget.Widget) *App {
	a := &App{
		app:      tview.NewApplication(),
		widget:   w,
		cfg:      cfg,
		boundary: widget.NewRenderBoundary("[red]The chat hit an error.[-]\n\nPress Ctrl+R to reload it."),
	}
	a.build()

	// QueueUpdateDraw blocks when invoked from the event loop goroutine, so
	// change notifications hop through a fresh goroutine.
	w.OnChange(func() {
		go a.app.QueueUpdateDraw(a.render)
	})
	w.OnScroll(func() {
		go a.app.QueueUpdateDraw(func() {
			a.transcript.ScrollToEnd()
		})
	})
	return a
}

func (a *App) build() {
	launcher := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter).
		SetText(fmt.Sprintf("\n[green::b]%s[-::-]\n\nPress Enter to chat, Ctrl+C to quit", a.cfg.Title))
	launcher.SetBorder(true)

	header := tview.NewTextView().
		SetDynamicColors(true).
		SetText(fmt.Sprintf("[::b]%s Assistant[-::-]  [gray](Esc minimizes, Ctrl+C quits)[-]", a.cfg.Title))

	a.transcript = tview.NewTextView().
		SetDynamicColors(true).
		SetWordWrap(true).
		SetScrollable(true)
	a.transcript.SetBorder(true)

	a.typingBar = tview.NewTextView().SetDynamicColors(true)

	a.input = tview.NewInputField().
		SetLabel("> ").
		SetFieldWidth(0)
	a.input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		text := a.input.GetText()
		a.input.SetText("")
		go a.widget.Send(context.Background(), text)
	})

	panel := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(header, 1, 0, false).
		AddItem(a.transcript, 0, 1, false).
		AddItem(a.typingBar, 1, 0, false).
		AddItem(a.input, 1, 0, true)

	fallback := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	fallback.SetBorder(true)
	a.pages = tview.NewPages().
		AddPage(pageLauncher, center(launcher, 44, 6), true, true).
		AddPage(pagePanel, panel, true, false).
		AddPage(pageFallback, fallback, true, false)

	a.app.SetRoot(a.pages, true)

	a.app.SetBeforeDrawFunc(func(screen tcell.Screen) bool {
		cols, _ := screen.Size()
		a.widget.SetWidth(cols * pixelsPerCell)
		return false
	})

	a.app.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		switch {
		case ev.Key() == tcell.KeyEnter && a.widget.State() == widget.Minimized:
			a.toggle()
			return nil
		case ev.Key() == tcell.KeyEscape && a.widget.State() == widget.Expanded:
			a.toggle()
			return nil
		case ev.Key() == tcell.KeyCtrlR && a.boundary.Tripped():
			a.boundary.Reset()
			a.render()
			return nil
		case ev.Key() == tcell.KeyCtrlU:
			a.rateLatest(chat.FeedbackPositive)
			return nil
		case ev.Key() == tcell.KeyCtrlN:
			a.rateLatest(chat.FeedbackNegative)
			return nil
		}
		return ev
	})
}

// Run starts the event loop and blocks until the app exits.
func (a *App) Run() error {
	a.render()
	return a.app.Run()
}

func (a *App) toggle() {
	a.widget.Toggle()
	a.render()
}

// rateLatest applies a thumbs rating to the most recent feedback-eligible
// bot message.
func (a *App) rateLatest(polarity chat.Polarity) {
	msgs := a.widget.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if a.widget.FeedbackEligible(msgs[i].ID) {
			a.widget.SubmitFeedback(msgs[i].ID, polarity)
			return
		}
	}
}

func (a *App) render() {
	if a.boundary.Tripped() {
		a.showFallback()
		return
	}

	if a.widget.State() == widget.Minimized {
		a.pages.SwitchToPage(pageLauncher)
		return
	}
	a.pages.SwitchToPage(pagePanel)

	text := a.boundary.Render(a.renderTranscript)
	if a.boundary.Tripped() {
		a.showFallback()
		return
	}
	a.transcript.SetText(text)
	a.transcript.ScrollToEnd()

	if a.widget.Typing() {
		a.typingBar.SetText("[gray]Assistant is typing...[-]")
	} else {
		a.typingBar.SetText("")
	}
}

func (a *App) showFallback() {
	a.pages.SwitchToPage(pageFallback)
	_, item := a.pages.GetFrontPage()
	if tv, ok := item.(*tview.TextView); ok {
		tv.SetText("\n" + a.boundary.Fallback())
	}
}

func (a *App) renderTranscript() string {
	var b strings.Builder
	for _, m := range a.widget.Messages() {
		if m.Role == chat.RoleUser {
			b.WriteString(fmt.Sprintf("[yellow::b]You[-::-]  %s\n", tview.Escape(m.Content)))
			continue
		}

		content := m.Content
		if st, ok := a.widget.RevealState(m.ID); ok {
			content = st.VisibleText()
		}
		b.WriteString("[green::b]" + a.cfg.Title + "[-::-]  ")
		b.WriteString(renderSegments(content))
		if a.widget.FeedbackEligible(m.ID) {
			if fb, ok := a.widget.FeedbackFor(m.ID); ok {
				b.WriteString(fmt.Sprintf("  [gray](rated %s)[-]", fb.Polarity))
			} else {
				b.WriteString("  [gray](Ctrl+U 👍 / Ctrl+N 👎)[-]")
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderSegments flattens formatted paragraphs into tview markup, underlining
// detected map links.
func renderSegments(content string) string {
	var b strings.Builder
	for i, para := range format.Format(content) {
		if i > 0 {
			b.WriteString("\n\n")
		}
		for _, seg := range para {
			if seg.IsLink() {
				b.WriteString("[blue::u]" + tview.Escape(seg.Text) + "[-::-]")
			} else {
				b.WriteString(tview.Escape(seg.Text))
			}
		}
	}
	return b.String()
}

func center(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 0, true).
			AddItem(nil, 0, 1, false), width, 0, true).
		AddItem(nil, 0, 1, false)
}
