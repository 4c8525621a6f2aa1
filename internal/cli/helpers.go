package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	appsync "github.com/jkmoore/whats-for-dinner/pkg/sync"
	"github.com/jkmoore/whats-for-dinner/pkg/types"
)

// snapshotTimeout bounds how long a command waits for the first subscription
// snapshot before giving up.
const snapshotTimeout = 5 * time.Second

// waitFor polls cond until it returns true or the timeout elapses.
func waitFor(cond func() bool) error {
	deadline := time.Now().Add(snapshotTimeout)
	for time.Now().Before(deadline) {
		if cond() {
			return nil
		}
		time.Sleep(5 * time.Millisecond)
	}
	return fmt.Errorf("timed out waiting for store snapshot")
}

// startSynchronizer subscribes a synchronizer for the signed-in user and
// blocks until the first snapshot lands.
func startSynchronizer(collection string) (*appsync.Synchronizer, error) {
	userID, err := currentUserID()
	if err != nil {
		return nil, err
	}
	s := appsync.NewSynchronizer(store, collection, []string{types.FieldOrder}, logger)
	if err := s.Start(userID); err != nil {
		return nil, err
	}
	if err := waitFor(func() bool { return !s.Loading() }); err != nil {
		s.Stop()
		return nil, err
	}
	if err := s.Err(); err != nil {
		s.Stop()
		return nil, err
	}
	return s, nil
}

// printJSON writes v to the command's stdout as indented JSON.
func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
