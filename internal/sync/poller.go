// Package sync runs the background refresh loop that keeps the account
// list current while the UI is open. Results arrive in the Bubble Tea
// runtime as messages; the poller never touches UI state directly.
package sync

import (
	"context"
	"log"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"mailsort/internal/api"
	"mailsort/internal/model"
	"mailsort/internal/store"
)

// PollState represents the current state of the background poll loop.
type PollState int

const (
	PollIdle PollState = iota
	PollRunning
	PollError
)

// Status holds the poll loop state for display in the status bar.
type Status struct {
	State    PollState
	LastPoll time.Time
	Error    error
}

// AccountsMsg is a tea.Msg sent when a background poll completes.
type AccountsMsg struct {
	Accounts        []model.Account
	NewAccountCount int
	Error           error
	AuthError       *AuthErrorMsg
}

// AuthErrorMsg is a tea.Msg sent when the service rejects the session.
type AuthErrorMsg struct {
	Message string
}

// fetchTimeout is the maximum time allowed for a single poll.
const fetchTimeout = 30 * time.Second

// Client is the slice of the API surface the poller needs.
type Client interface {
	ListAccounts(ctx context.Context) ([]model.Account, error)
	ListCategories(ctx context.Context, accountID int64) ([]model.Category, error)
}

// Poller periodically fetches the account list, mirrors it into the local
// cache, and reports changes to the UI.
type Poller struct {
	client   Client
	store    store.Store
	interval time.Duration
	logger   *log.Logger

	resultCh  chan AccountsMsg
	triggerCh chan struct{}
	stopCh    chan struct{}

	mu      gosync.Mutex
	running bool
	status  Status
}

// New creates a poller. A non-positive interval disables the ticker;
// polls then happen only on Start and on manual Refresh.
func New(client Client, s store.Store, interval time.Duration, logger *log.Logger) *Poller {
	if logger == nil {
		logger = log.Default()
	}
	return &Poller{
		client:    client,
		store:     s,
		interval:  interval,
		logger:    logger,
		resultCh:  make(chan AccountsMsg, 16),
		triggerCh: make(chan struct{}, 16),
		stopCh:    make(chan struct{}),
	}
}

// Start launches the polling goroutine and returns a subscription command
// that delivers AccountsMsg messages to the Bubble Tea runtime.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.mu.Unlock()

	go p.loop()

	return p.waitForResult()
}

// Stop halts the polling goroutine.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stopCh)
	p.running = false
}

// Refresh triggers an immediate poll without waiting for the ticker.
func (p *Poller) Refresh() tea.Cmd {
	select {
	case p.triggerCh <- struct{}{}:
	default:
		// Channel full; a poll is already pending
	}
	return nil
}

// Status returns the current poll loop status.
func (p *Poller) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// loop runs the poll cycle until Stop is called. A nil tick channel
// blocks forever, so a disabled ticker still serves manual triggers.
func (p *Poller) loop() {
	var tick <-chan time.Time
	if p.interval > 0 {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	// Do an initial fetch immediately
	p.poll()

	for {
		select {
		case <-p.stopCh:
			return
		case <-tick:
			p.poll()
		case <-p.triggerCh:
			p.poll()
		}
	}
}

// poll performs one fetch, mirrors the result into the cache, and sends
// an AccountsMsg on the result channel.
func (p *Poller) poll() {
	p.setStatus(PollRunning, nil)

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	accounts, err := p.client.ListAccounts(ctx)
	if err != nil {
		p.setStatus(PollError, err)

		// An expired session is actionable; surface it by name.
		if api.IsAuthError(err) {
			p.sendResult(AccountsMsg{
				Error: err,
				AuthError: &AuthErrorMsg{
					Message: "session expired, run mailsort -login to reconnect",
				},
			})
			return
		}

		p.sendResult(AccountsMsg{Error: err})
		return
	}

	// Count accounts not present in the previous cached snapshot.
	newCount := 0
	cached, cacheErr := p.store.GetCachedAccounts(ctx)
	if cacheErr == nil {
		known := make(map[int64]bool, len(cached))
		for _, a := range cached {
			known[a.ID] = true
		}
		for _, a := range accounts {
			if !known[a.ID] {
				newCount++
			}
		}
	}

	if err := p.store.CacheAccounts(ctx, accounts); err != nil {
		p.setStatus(PollError, err)
		p.sendResult(AccountsMsg{Accounts: accounts, Error: err})
		return
	}

	// Mirror each account's categories so a cold start has labels to show.
	for _, a := range accounts {
		categories, err := p.client.ListCategories(ctx, a.ID)
		if err != nil {
			p.logger.Printf("listing categories for account %d failed: %v", a.ID, err)
			continue
		}
		if err := p.store.CacheCategories(ctx, a.ID, categories); err != nil {
			p.logger.Printf("caching categories for account %d failed: %v", a.ID, err)
		}
	}

	p.setStatus(PollIdle, nil)
	p.sendResult(AccountsMsg{
		Accounts:        accounts,
		NewAccountCount: newCount,
	})
}

// setStatus updates the poll status.
func (p *Poller) setStatus(state PollState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status.State = state
	p.status.Error = err
	if state == PollIdle && err == nil {
		p.status.LastPoll = time.Now()
	}
}

// sendResult sends an AccountsMsg on the result channel without blocking.
func (p *Poller) sendResult(msg AccountsMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}

// waitForResult returns a tea.Cmd that waits for the next result from
// the result channel.
func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-p.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next poll result.
// This should be called after processing an AccountsMsg to continue
// listening for future results.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
