package palette

import (
	"clinic_flow_app_go/services"

	tea "github.com/charmbracelet/bubbletea"
)

// searchChangedMsg carries a coordinator snapshot; the view re-reads state on every render
type searchChangedMsg services.SearchState

type feedChangedMsg struct{}

// NavigateMsg is emitted when a result or notification is opened
type NavigateMsg string

// Events carries callbacks from the coordinator, the feed and the navigator into the
// bubbletea loop. Messages are coalesced when the loop falls behind; the next render
// reads fresh state anyway.
type Events struct {
	ch chan tea.Msg
}

func NewEvents() *Events {
	return &Events{ch: make(chan tea.Msg, 64)}
}

func (e *Events) send(msg tea.Msg) {
	select {
	case e.ch <- msg:
	default:
	}
}

// SearchListener plugs into services.WithSearchListener
func (e *Events) SearchListener() func(services.SearchState) {
	return func(s services.SearchState) { e.send(searchChangedMsg(s)) }
}

// FeedListener plugs into services.WithFeedListener
func (e *Events) FeedListener() func() {
	return func() { e.send(feedChangedMsg{}) }
}

// Navigator turns route changes into NavigateMsg
func (e *Events) Navigator() services.Navigator {
	return services.NavigatorFunc(func(path string) {
		// navigation must not be dropped
		e.ch <- NavigateMsg(path)
	})
}

func (e *Events) wait() tea.Cmd {
	return func() tea.Msg {
		return <-e.ch
	}
}
