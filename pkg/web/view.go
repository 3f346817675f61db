package web

import (
	"html"
	"strings"

	"github.com/tourvia/tourchat/pkg/chat"
	"github.com/tourvia/tourchat/pkg/format"
)

// snapshotView is the full widget state pushed to the page. The browser is a
// dumb renderer; eligibility and reveal progress are decided here.
type snapshotView struct {
	State    string        `json:"state"`
	Typing   bool          `json:"typing"`
	Messages []messageView `json:"messages"`
}

type messageView struct {
	ID               string `json:"id"`
	Role             string `json:"role"`
	HTML             string `json:"html"`
	Time             string `json:"time"`
	Complete         bool   `json:"complete"`
	FadeIn           bool   `json:"fade_in"`
	FeedbackEligible bool   `json:"feedback_eligible"`
	Feedback         string `json:"feedback,omitempty"`
}

func (s *Server) snapshot() snapshotView {
	msgs := s.widget.Messages()
	view := snapshotView{
		State:    stateName(s.widget.State()),
		Typing:   s.widget.Typing(),
		Messages: make([]messageView, 0, len(msgs)),
	}

	for _, m := range msgs {
		mv := messageView{
			ID:   m.ID,
			Role: string(m.Role),
			Time: m.CreatedAt.Format("15:04"),
		}

		content := m.Content
		if m.Role == chat.RoleBot {
			if st, ok := s.widget.RevealState(m.ID); ok {
				content = st.VisibleText()
				mv.Complete = st.Complete
				mv.FadeIn = st.FadeIn
			} else {
				// No animation state: plain, feedback-ineligible block.
				mv.Complete = false
			}
			mv.FeedbackEligible = s.widget.FeedbackEligible(m.ID)
			if fb, ok := s.widget.FeedbackFor(m.ID); ok {
				mv.Feedback = string(fb.Polarity)
			}
		} else {
			mv.Complete = true
		}

		mv.HTML = renderHTML(content)
		view.Messages = append(view.Messages, mv)
	}
	return view
}

// renderHTML applies the message formatter and escapes everything except the
// anchors it emits for detected map links.
func renderHTML(content string) string {
	paragraphs := format.Format(content)

	var b strings.Builder
	for i, para := range paragraphs {
		if i > 0 {
			b.WriteString("<br><br>")
		}
		for _, seg := range para {
			if seg.IsLink() {
				b.WriteString(`<a href="` + html.EscapeString(seg.URL) + `" target="_blank" rel="noopener">`)
				b.WriteString(html.EscapeString(seg.Text))
				b.WriteString(`</a>`)
			} else {
				b.WriteString(html.EscapeString(seg.Text))
			}
		}
	}
	return b.String()
}
