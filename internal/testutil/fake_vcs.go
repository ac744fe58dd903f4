package testutil

import (
	"context"
	"fmt"
	"sync"

	"pagesbot/internal/vcs"
)

// FakeVCS is an in-memory vcs.Client. Each operation can be made to fail
// by setting the matching *Err field; calls are recorded in order.
type FakeVCS struct {
	mu sync.Mutex

	StageErr   error
	CommitErr  error
	PushErr    error
	ResolveErr error
	// SHA is returned by ResolveHeadSHA; an empty value yields vcs.ErrEmptyOutput.
	SHA string

	Calls    []string
	Staged   [][]string
	Messages []string
	Pushes   []Push
}

type Push struct {
	RemoteURL string
	Branch    string
}

func NewFakeVCS(sha string) *FakeVCS {
	return &FakeVCS{SHA: sha}
}

func (f *FakeVCS) StageAll(_ context.Context, paths []string) (*vcs.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, "stage")
	f.Staged = append(f.Staged, append([]string(nil), paths...))
	return f.result(f.StageErr), f.StageErr
}

func (f *FakeVCS) Commit(_ context.Context, message string) (*vcs.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, "commit")
	f.Messages = append(f.Messages, message)
	return f.result(f.CommitErr), f.CommitErr
}

func (f *FakeVCS) ForcePush(_ context.Context, remoteURL, branch string) (*vcs.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, "push")
	f.Pushes = append(f.Pushes, Push{RemoteURL: remoteURL, Branch: branch})
	return f.result(f.PushErr), f.PushErr
}

func (f *FakeVCS) ResolveHeadSHA(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, "resolve")
	if f.ResolveErr != nil {
		return "", f.ResolveErr
	}
	if f.SHA == "" {
		return "", fmt.Errorf("fake rev-parse: %w", vcs.ErrEmptyOutput)
	}
	return f.SHA, nil
}

// CallCount is safe to use while requests are in flight.
func (f *FakeVCS) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

func (f *FakeVCS) result(err error) *vcs.Result {
	if err != nil {
		return &vcs.Result{ExitCode: 1, Stderr: err.Error()}
	}
	return &vcs.Result{}
}
