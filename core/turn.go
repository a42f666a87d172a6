package core

// Exchange groups a user line with the lines that answer it, representing
// one request-reply cycle in the conversation.
type Exchange struct {
	Prompt  *Line  // nil if the exchange starts with a non-user line
	Replies []Line // assistant and system lines that follow the prompt
}

// GroupExchanges splits a flat transcript into exchanges. A new exchange
// starts at each user line; leading non-user lines form an exchange with a
// nil Prompt.
func GroupExchanges(lines []Line) []Exchange {
	var out []Exchange
	var current *Exchange

	for i := range lines {
		l := &lines[i]
		if l.Role == RoleUser {
			if current != nil {
				out = append(out, *current)
			}
			current = &Exchange{Prompt: l}
			continue
		}
		if current == nil {
			current = &Exchange{}
		}
		current.Replies = append(current.Replies, *l)
	}
	if current != nil {
		out = append(out, *current)
	}
	return out
}

// Answered reports whether the exchange has at least one assistant reply.
func (e Exchange) Answered() bool {
	for _, l := range e.Replies {
		if l.Role == RoleAssistant {
			return true
		}
	}
	return false
}
