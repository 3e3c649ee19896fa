// Package sender delivers generated responses through the channel provider
// APIs. Each channel implements OutboundSender; the processor picks one by
// the channel entity's type tag, so adding a channel means adding an
// implementation, not branching in the pipeline.
package sender

import (
	"context"
	"fmt"
)

// OutboundSender delivers a response text to a recipient on one channel
type OutboundSender interface {
	// ChannelType returns the channel tag this sender serves
	ChannelType() string
	// SendMessage delivers text to the recipient using the channel's access token
	SendMessage(ctx context.Context, accessToken, recipientID, text string) error
}

// CommentReplier is implemented by senders whose channel supports threaded
// replies under comments. Channels without it only handle direct messages.
type CommentReplier interface {
	ReplyToComment(ctx context.Context, accessToken, commentID, text string) error
}

// Registry resolves senders by channel type
type Registry struct {
	senders map[string]OutboundSender
}

// NewRegistry builds a registry from the given senders
func NewRegistry(senders ...OutboundSender) *Registry {
	m := make(map[string]OutboundSender, len(senders))
	for _, s := range senders {
		m[s.ChannelType()] = s
	}
	return &Registry{senders: m}
}

// ForChannel returns the sender for the channel type
func (r *Registry) ForChannel(channelType string) (OutboundSender, error) {
	s, ok := r.senders[channelType]
	if !ok {
		return nil, fmt.Errorf("unsupported channel type: %s", channelType)
	}
	return s, nil
}
