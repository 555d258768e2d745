package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/ybtag/GrapheneMessaging/pkg/message"
)

// Tag markers per notification class. A tag is appID + marker, optionally
// followed by ":" and the conversation id; bulk cancellation matches on the
// marker substring.
const (
	messageTagMarker   = ":message:"
	errorTagMarker     = ":error:"
	emergencyTagMarker = ":emergency:"
)

// Fixed channel ids. Per-conversation channels use the conversation id.
const (
	ChannelIncoming = "incoming_messages"
	ChannelAlerts   = "alerts"
)

// observableSoundVolume is the fraction of the notification volume used for
// the quiet confirmation sound of an observable conversation.
const observableSoundVolume = 0.25

// Deps are the external collaborators of a Dispatcher.
type Deps struct {
	Store    MessageStore
	Shelf    Shelf
	Presence PresenceOracle
	Avatars  AvatarResolver
	Actions  ActionFactory
	Sounds   SoundPlayer
	Role     RoleOracle
	Logger   *slog.Logger
	Metrics  *Metrics
}

// Options tune a Dispatcher.
type Options struct {
	// AppID prefixes every notification tag, playing the role a package name
	// plays on the platform shelf.
	AppID string
	// LineCap bounds retained lines per conversation; <= 0 uses the default.
	LineCap int
	// DefaultRingtoneURI is used when a conversation has no custom sound.
	DefaultRingtoneURI string
	// FailureSoundURI is played by failed-message notifications.
	FailureSoundURI string
}

// Dispatcher owns channel creation, notification tag construction, posting,
// cancellation, and the separate failed-message lane. One message
// notification exists per conversation; unread messages within it are
// coalesced. Failures across conversations are coalesced into a single error
// notification.
//
// Update and the methods it drives block on store and image work and must be
// invoked off the UI execution path.
type Dispatcher struct {
	deps   Deps
	opts   Options
	agg    *Aggregator
	merger *Merger
	logger *slog.Logger
	tracer trace.Tracer

	mu       sync.Mutex
	tagLocks map[string]*sync.Mutex
}

// NewDispatcher wires a Dispatcher from its collaborators.
func NewDispatcher(deps Deps, opts Options) *Dispatcher {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "dispatcher")
	return &Dispatcher{
		deps:     deps,
		opts:     opts,
		agg:      NewAggregator(deps.Store, opts.LineCap, logger),
		merger:   NewMerger(deps.Avatars, logger),
		logger:   logger,
		tracer:   otel.Tracer("notify"),
		tagLocks: make(map[string]*sync.Mutex),
	}
}

// NotificationTag returns the shelf identity for a notification class and an
// optional conversation. Error-class notifications are always global.
func (d *Dispatcher) NotificationTag(typ NotificationType, conversationID string) string {
	switch typ {
	case TypeError:
		return d.opts.AppID + errorTagMarker
	default:
		if conversationID == "" {
			return d.opts.AppID + messageTagMarker
		}
		return d.opts.AppID + messageTagMarker + ":" + conversationID
	}
}

// Update is the entry point for reconsidering notifications. scope selects
// which classes to rebuild; the classes run independently and a failure in
// one never blocks the other. conversationID names the conversation whose
// message state changed; an empty id with ScopeMessages cancels all message
// notifications.
//
// Update must not run on the UI execution path: it fails fast with
// ErrUIContext when handed a context marked via WithUIContext.
func (d *Dispatcher) Update(ctx context.Context, conversationID string, scope Scope) error {
	if isUIContext(ctx) {
		return ErrUIContext
	}
	if d.deps.Role != nil && !d.deps.Role.HoldsMessagingRole() {
		d.logger.Debug("messaging role not held, skipping update")
		return nil
	}

	ctx, span := d.tracer.Start(ctx, "notify.update", trace.WithAttributes(
		attribute.String("conversation_id", conversationID),
		attribute.Int("scope", int(scope)),
	))
	defer span.End()

	d.logger.Debug("update", "conversation_id", conversationID, "scope", int(scope))

	var g errgroup.Group
	if scope&ScopeMessages != 0 {
		g.Go(func() error {
			if err := d.updateMessages(ctx, conversationID); err != nil {
				d.deps.Metrics.incCycleError()
				return err
			}
			return nil
		})
	}
	if scope&ScopeErrors != 0 {
		g.Go(func() error {
			if err := d.checkFailedMessages(ctx); err != nil {
				d.deps.Metrics.incCycleError()
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

// Resync rebuilds the shelf from the store's current state: every
// conversation with unseen messages is posted under its own tag, message
// notifications for conversations with nothing unseen left are retired, and
// the failed-message lane is re-checked. Observable conversations are
// skipped without a sound; resync is a background reconciliation, not a
// new-message trigger.
func (d *Dispatcher) Resync(ctx context.Context) error {
	if isUIContext(ctx) {
		return ErrUIContext
	}
	if d.deps.Role != nil && !d.deps.Role.HoldsMessagingRole() {
		d.logger.Debug("messaging role not held, skipping resync")
		return nil
	}

	ctx, span := d.tracer.Start(ctx, "notify.resync")
	defer span.End()

	list, err := d.agg.ConversationsList(ctx)
	if err != nil {
		return err
	}

	want := make(map[string]struct{})
	if list != nil {
		state := NewState(list)
		for _, conv := range list.Conversations {
			if d.deps.Presence.IsObservable(conv.ID) {
				continue
			}
			want[d.NotificationTag(TypeMessage, conv.ID)] = struct{}{}
			if err := d.postConversation(ctx, state, conv, false); err != nil {
				return err
			}
		}
	}

	marker := d.NotificationTag(TypeMessage, "")
	for _, active := range d.deps.Shelf.ActiveTags() {
		if !strings.Contains(active, marker) {
			continue
		}
		if _, ok := want[active]; ok {
			continue
		}
		d.deps.Shelf.Cancel(active, TypeMessage)
		d.deps.Metrics.incCanceled(TypeMessage)
	}

	return d.checkFailedMessages(ctx)
}

// Cancel removes notifications of a class. With a conversation id only that
// conversation's notification is canceled; without one, every active
// notification whose tag contains the class marker is canceled, an explicit
// linear scan, since the shelf offers no tag-prefix cancel primitive.
func (d *Dispatcher) Cancel(typ NotificationType, conversationID string) {
	tag := d.NotificationTag(typ, conversationID)
	if conversationID == "" {
		for _, active := range d.deps.Shelf.ActiveTags() {
			if strings.Contains(active, tag) {
				d.deps.Shelf.Cancel(active, typ)
				d.deps.Metrics.incCanceled(typ)
			}
		}
	} else {
		d.deps.Shelf.Cancel(tag, typ)
		d.deps.Metrics.incCanceled(typ)
	}
	d.logger.Debug("canceled notifications", "type", int(typ), "conversation_id", conversationID)
}

// MarkSeen marks one conversation's messages seen and retires its
// notification.
func (d *Dispatcher) MarkSeen(ctx context.Context, conversationID string) error {
	if err := d.deps.Store.MarkConversationSeen(ctx, conversationID); err != nil {
		return fmt.Errorf("notify: mark seen: %w", err)
	}
	d.Cancel(TypeMessage, conversationID)
	return nil
}

// MarkAllSeen marks every message seen and retires all message notifications.
func (d *Dispatcher) MarkAllSeen(ctx context.Context) error {
	if err := d.deps.Store.MarkAllSeen(ctx); err != nil {
		return fmt.Errorf("notify: mark all seen: %w", err)
	}
	d.Cancel(TypeMessage, "")
	return nil
}

func (d *Dispatcher) updateMessages(ctx context.Context, conversationID string) error {
	if conversationID == "" {
		d.Cancel(TypeMessage, "")
		return nil
	}

	list, err := d.agg.ConversationsList(ctx)
	if err != nil {
		// Leave the prior shelf state untouched: stale but consistent beats
		// partially merged.
		return err
	}

	soft := d.deps.Presence.IsObservable(conversationID)
	if list == nil {
		d.logger.Debug("no unseen messages")
		if soft {
			d.playSoftSound(ctx, conversationID)
		}
		return nil
	}

	state := NewState(list)
	// Each trigger posts the most recent conversation; over successive
	// triggers every conversation ends up under its own tag.
	return d.postConversation(ctx, state, list.Conversations[0], soft)
}

func (d *Dispatcher) postConversation(ctx context.Context, state *State, conv *Conversation, soft bool) error {
	ringtone := conv.RingtoneURI
	if ringtone == "" {
		ringtone = d.opts.DefaultRingtoneURI
	}

	if soft {
		// The user is already looking at this conversation; play a quiet
		// confirmation instead of announcing it.
		d.logger.Debug("conversation observable, playing soft sound", "conversation_id", conv.ID)
		d.playSoundLocked(ringtone)
		return nil
	}

	state.BaseRequestCode = int(state.Type)
	tag := d.NotificationTag(TypeMessage, conv.ID)

	lock := d.tagLock(tag)
	lock.Lock()
	defer lock.Unlock()

	// Re-read the shelf fresh under the tag lock: it is mutated by
	// uncoordinated triggers and user dismissal.
	active, _ := d.deps.Shelf.Active(tag)
	lines, changed := d.merger.Merge(ctx, conv, active)
	if !changed {
		d.deps.Metrics.incMergeNoop()
		d.logger.Debug("no new lines, skipping post", "conversation_id", conv.ID)
		return nil
	}

	d.refreshConversationChannel(conv, ringtone)

	actions := []PendingAction{
		d.deps.Actions.Conversation(state.ContentRequestCode(), conv.ID),
		d.deps.Actions.Clear(state.ClearRequestCode(), ScopeMessages, conv.ID),
		d.deps.Actions.Reply(state.ReplyRequestCode(), conv.ID),
	}
	if messageID := conv.LatestMessageID(); conv.LatestNeedsDownload() && messageID != "" {
		actions = append(actions, d.deps.Actions.Download(messageID))
	}

	n := &Notification{
		Tag:       tag,
		Type:      TypeMessage,
		ChannelID: conv.ID,
		Title:     conv.Title(),
		Group:     conv.IsGroup,
		When:      conv.ReceivedTimestamp,
		SoundURI:  ringtone,
		Lines:     lines,
		Actions:   actions,
	}

	state.Canceled = true
	d.deps.Shelf.Post(tag, TypeMessage, n)
	d.deps.Metrics.incPosted(TypeMessage)
	d.logger.Info("notifying for conversation",
		"conversation_id", conv.ID,
		"tag", tag,
		"lines", len(lines),
	)
	return nil
}

// refreshConversationChannel writes the conversation's channel with its
// latest preference values. The write is idempotent and always safe to
// repeat; a channel the user silenced on the shelf stays silenced.
func (d *Dispatcher) refreshConversationChannel(conv *Conversation, ringtone string) {
	enabled := conv.NotificationEnabled
	if existing, ok := d.deps.Shelf.Channel(conv.ID); ok {
		enabled = existing.Importance > ImportanceNone
	}
	importance := ImportanceDefault
	if !enabled {
		importance = ImportanceNone
	}
	d.deps.Shelf.EnsureChannel(ChannelSpec{
		ID:         conv.ID,
		Name:       conv.Title(),
		Importance: importance,
		SoundURI:   ringtone,
		Vibrate:    conv.VibrationEnabled,
	})
}

// checkFailedMessages scans for unseen send or download failures and
// coalesces them into a single error notification, canceling it when the
// failed set becomes empty.
func (d *Dispatcher) checkFailedMessages(ctx context.Context) error {
	rows, err := d.deps.Store.QueryFailedMessages(ctx)
	if err != nil {
		return fmt.Errorf("notify: query failed messages: %w", err)
	}

	// Failures in a conversation the user is looking at are already flagged
	// inline; don't announce them on the shelf too.
	failed := rows[:0:0]
	conversations := make(map[string]struct{})
	for _, row := range rows {
		if d.deps.Presence.IsObservable(row.ConversationID) {
			continue
		}
		failed = append(failed, row)
		conversations[row.ConversationID] = struct{}{}
	}
	d.logger.Debug("failed message scan", "failed", len(failed))

	tag := d.NotificationTag(TypeError, "")
	lock := d.tagLock(tag)
	lock.Lock()
	defer lock.Unlock()

	if len(failed) == 0 {
		d.deps.Shelf.Cancel(tag, TypeError)
		d.deps.Metrics.incCanceled(TypeError)
		return nil
	}

	d.deps.Shelf.EnsureChannel(ChannelSpec{
		ID:         ChannelAlerts,
		Name:       "Alerts",
		Importance: ImportanceHigh,
		SoundURI:   d.opts.FailureSoundURI,
	})

	last := failed[len(failed)-1]
	n := &Notification{
		Tag:       tag,
		Type:      TypeError,
		ChannelID: ChannelAlerts,
		When:      time.Now().UnixMilli(),
		SoundURI:  d.opts.FailureSoundURI,
	}
	if len(failed) == 1 {
		// A single failure routes straight into its conversation and shows
		// the message snippet.
		n.Title = failureTitle(last.Status, false)
		n.Body = failureSnippet(last)
		n.Actions = []PendingAction{
			d.deps.Actions.Conversation(0, last.ConversationID),
			d.deps.Actions.Clear(0, ScopeErrors, last.ConversationID),
		}
	} else {
		n.Title = failureTitle(last.Status, true)
		n.Body = failureSummary(len(failed), len(conversations))
		n.Actions = []PendingAction{
			d.deps.Actions.ConversationList(0),
			d.deps.Actions.Clear(0, ScopeErrors, ""),
		}
	}

	d.deps.Shelf.Post(tag, TypeError, n)
	d.deps.Metrics.incPosted(TypeError)
	d.deps.Metrics.incFailure()
	d.logger.Info("notifying for failed messages",
		"failed", len(failed),
		"conversations", len(conversations),
	)
	return nil
}

// failureSnippet is the plain-text body of a singular failure notification.
// Failure notifications never render rich content.
func failureSnippet(row message.Row) string {
	if row.Text != "" {
		return row.Text
	}
	if len(row.Attachments) > 0 {
		return attachmentLabel(firstAttachment(row.Attachments))
	}
	return textUnsupportedFile
}

// UpdateWithInlineReply appends a self-authored reply line to the active
// notification of a conversation and reposts it without re-alerting. A
// conversation with no active notification is a no-op.
func (d *Dispatcher) UpdateWithInlineReply(conversationID, text string) {
	tag := d.NotificationTag(TypeMessage, conversationID)
	lock := d.tagLock(tag)
	lock.Lock()
	defer lock.Unlock()

	active, ok := d.deps.Shelf.Active(tag)
	if !ok || len(active.Lines) == 0 {
		return
	}
	active.Lines = append(active.Lines, RenderedLine{
		Author:    textSelf,
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
	})
	active.AlertOnce = true
	d.deps.Shelf.Post(tag, TypeMessage, active)
	d.deps.Metrics.incPosted(TypeMessage)
}

// NotifyEmergencyFailure posts an immediate alert that a message to an
// emergency number failed, routed into that conversation.
func (d *Dispatcher) NotifyEmergencyFailure(emergencyNumber, conversationID string) {
	d.deps.Shelf.EnsureChannel(ChannelSpec{
		ID:         ChannelAlerts,
		Name:       "Alerts",
		Importance: ImportanceHigh,
		SoundURI:   d.opts.FailureSoundURI,
	})
	tag := d.opts.AppID + emergencyTagMarker
	d.deps.Shelf.Post(tag, TypeError, &Notification{
		Tag:       tag,
		Type:      TypeError,
		ChannelID: ChannelAlerts,
		Title:     fmt.Sprintf("Message to emergency number %s failed", emergencyNumber),
		Body:      fmt.Sprintf("Try calling %s instead", emergencyNumber),
		When:      time.Now().UnixMilli(),
		SoundURI:  d.opts.FailureSoundURI,
		Actions: []PendingAction{
			d.deps.Actions.Conversation(0, conversationID),
		},
	})
	d.deps.Metrics.incPosted(TypeError)
	d.logger.Info("emergency send failure", "conversation_id", conversationID)
}

// playSoftSound plays the quiet confirmation for an observable conversation,
// using its configured ringtone. Blank conversation ids stay silent.
func (d *Dispatcher) playSoftSound(ctx context.Context, conversationID string) {
	if strings.TrimSpace(conversationID) == "" {
		return
	}
	ringtone := d.opts.DefaultRingtoneURI
	if info, err := d.deps.Store.ConversationMetadata(ctx, conversationID); err == nil && info.RingtoneURI != "" {
		ringtone = info.RingtoneURI
	}
	d.playSoundLocked(ringtone)
}

func (d *Dispatcher) playSoundLocked(ringtone string) {
	if d.deps.Sounds == nil {
		return
	}
	d.deps.Sounds.Play(ringtone, observableSoundVolume)
	d.deps.Metrics.incSoftSound()
}

// tagLock returns the mutex serializing dispatch for one notification tag.
// Per-tag serialization prevents a concurrent update from interleaving its
// merge read of the shelf with our write; cross-tag updates run in parallel.
func (d *Dispatcher) tagLock(tag string) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	lock, ok := d.tagLocks[tag]
	if !ok {
		lock = &sync.Mutex{}
		d.tagLocks[tag] = lock
	}
	return lock
}
