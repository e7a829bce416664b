// Package notify finds outdated dependencies that have not been reported yet
// and posts them to Slack.
//
// A run resolves the projects to check, collects their dependency reports,
// keeps the outdated entries whose current version differs from the one last
// notified, sends them as a single message and records the notified versions.
//
// Usage:
//
//	n, err := notify.New(apiClient, webhook, notify.NewFileStore(path),
//	    notify.WithChannel("#deps"))
//	if err != nil {
//	    return err
//	}
//	result, err := n.Run(ctx)
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/obentoo/versioneye-slack/internal/common/logger"
	"github.com/obentoo/versioneye-slack/internal/slack"
	"github.com/obentoo/versioneye-slack/internal/versioneye"
)

var (
	// ErrNoProjectSource is returned when New is called without an API client
	ErrNoProjectSource = errors.New("project source is required")
	// ErrNoSender is returned when New is called without a message sender
	ErrNoSender = errors.New("message sender is required")
	// ErrNoStore is returned when New is called without a cache store
	ErrNoStore = errors.New("cache store is required")
)

// ProjectSource provides project identifiers and dependency reports.
// *versioneye.Client satisfies it.
type ProjectSource interface {
	ListProjects(ctx context.Context) ([]versioneye.ProjectID, error)
	Dependencies(ctx context.Context, id versioneye.ProjectID) ([]versioneye.Dependency, error)
}

// MessageSender delivers a chat message. *slack.Webhook satisfies it.
type MessageSender interface {
	Send(ctx context.Context, msg slack.Message) error
}

// Result summarizes a run.
type Result struct {
	// Projects is the list of project identifiers that were checked
	Projects []versioneye.ProjectID
	// Dependencies is the number of dependency records fetched across projects
	Dependencies int
	// Outdated is the number of outdated records before cache filtering
	Outdated int
	// Notified holds the records included in the message
	Notified []versioneye.Dependency
	// Message is the message that was (or, in dry run, would have been) sent
	Message *slack.Message
	// Sent is true when the webhook accepted the message
	Sent bool
}

// Notifier runs the outdated dependency pipeline.
type Notifier struct {
	api      ProjectSource
	sender   MessageSender
	store    Store
	channel  string
	projects []versioneye.ProjectID
	linkBase string
	dryRun   bool
}

// Option is a functional option for configuring Notifier
type Option func(*Notifier)

// WithChannel sets the destination channel. Empty keeps the default.
func WithChannel(channel string) Option {
	return func(n *Notifier) {
		if channel != "" {
			n.channel = channel
		}
	}
}

// WithProjects restricts the run to the given projects instead of every
// project on the account. An empty list keeps discovery enabled.
func WithProjects(ids ...versioneye.ProjectID) Option {
	return func(n *Notifier) {
		n.projects = append([]versioneye.ProjectID(nil), ids...)
	}
}

// WithLinkBase sets the site prefix used for package links.
func WithLinkBase(base string) Option {
	return func(n *Notifier) {
		if base != "" {
			n.linkBase = base
		}
	}
}

// WithDryRun builds the message without sending it or touching the cache.
func WithDryRun(dryRun bool) Option {
	return func(n *Notifier) {
		n.dryRun = dryRun
	}
}

// New creates a Notifier.
func New(api ProjectSource, sender MessageSender, store Store, opts ...Option) (*Notifier, error) {
	if api == nil {
		return nil, ErrNoProjectSource
	}
	if sender == nil {
		return nil, ErrNoSender
	}
	if store == nil {
		return nil, ErrNoStore
	}

	n := &Notifier{
		api:      api,
		sender:   sender,
		store:    store,
		channel:  slack.DefaultChannel,
		linkBase: PackageURLBase,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Run executes the pipeline once. The cache is only written after the
// webhook accepted the message.
func (n *Notifier) Run(ctx context.Context) (*Result, error) {
	result := &Result{}

	ids, err := n.resolveProjects(ctx)
	if err != nil {
		return result, err
	}
	result.Projects = ids

	var deps []versioneye.Dependency
	for _, id := range ids {
		logger.Debug("Checking project %s", id)
		projectDeps, err := n.api.Dependencies(ctx, id)
		if err != nil {
			return result, fmt.Errorf("fetching dependencies: %w", err)
		}
		deps = append(deps, projectDeps...)
	}
	result.Dependencies = len(deps)

	outdated := FilterOutdated(deps)
	result.Outdated = len(outdated)

	fresh := FilterNotified(outdated, n.loadCache())
	result.Notified = fresh

	logger.Debug("%d dependencies, %d outdated, %d not yet notified",
		len(deps), len(outdated), len(fresh))

	if len(fresh) == 0 {
		logger.Debug("No new outdated dependencies")
		return result, nil
	}

	msg := BuildMessage(n.channel, n.linkBase, fresh)
	result.Message = &msg

	if n.dryRun {
		logger.Debug("Dry run: %d outdated dependencies would be sent to %s", len(fresh), n.channel)
		return result, nil
	}

	if err := n.sender.Send(ctx, msg); err != nil {
		return result, fmt.Errorf("sending notification: %w", err)
	}
	result.Sent = true

	// Re-read so entries written since the first load are kept.
	if err := n.store.Save(MergeNotified(n.loadCache(), fresh)); err != nil {
		return result, fmt.Errorf("saving notification cache: %w", err)
	}

	logger.Debug("Sent %d outdated dependencies to %s", len(fresh), n.channel)
	return result, nil
}

func (n *Notifier) resolveProjects(ctx context.Context) ([]versioneye.ProjectID, error) {
	if len(n.projects) > 0 {
		return n.projects, nil
	}

	ids, err := n.api.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("discovering projects: %w", err)
	}
	return ids, nil
}

// loadCache never fails: a store error reads as an empty cache.
func (n *Notifier) loadCache() map[string]string {
	cached, err := n.store.Load()
	if err != nil {
		logger.Warn("Ignoring unreadable notification cache: %v", err)
		return map[string]string{}
	}
	if cached == nil {
		return map[string]string{}
	}
	return cached
}

// FilterOutdated keeps the dependencies flagged as outdated, in order.
func FilterOutdated(deps []versioneye.Dependency) []versioneye.Dependency {
	var out []versioneye.Dependency
	for _, dep := range deps {
		if dep.Outdated {
			out = append(out, dep)
		}
	}
	return out
}

// FilterNotified drops dependencies whose current version is already
// recorded for their package key.
func FilterNotified(deps []versioneye.Dependency, cached map[string]string) []versioneye.Dependency {
	var out []versioneye.Dependency
	for _, dep := range deps {
		if version, ok := cached[dep.Key()]; ok && version == dep.VersionCurrent {
			continue
		}
		out = append(out, dep)
	}
	return out
}

// MergeNotified returns a copy of cached with each dependency's current
// version recorded under its package key. Later entries win.
func MergeNotified(cached map[string]string, deps []versioneye.Dependency) map[string]string {
	merged := copyMap(cached)
	for _, dep := range deps {
		merged[dep.Key()] = dep.VersionCurrent
	}
	return merged
}
