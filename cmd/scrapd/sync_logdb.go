// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/cheggaaa/pb.v1"

	"github.com/scrapyard/scrapmaster/chain"
	"github.com/scrapyard/scrapmaster/logdb"
	"github.com/scrapyard/scrapmaster/scrap"
	"github.com/scrapyard/scrapmaster/tx"
)

// syncLogDB writes events of blocks the log db has not seen yet, reading them back from stored receipts.
// With verify set, blocks already indexed are checked against their receipts first.
func syncLogDB(ctx context.Context, repo *chain.Repository, logDB *logdb.LogDB, verify bool, out io.Writer) error {
	bestNum := repo.BestBlockSummary().Header.Number()

	newest, logged, err := logDB.NewestBlock()
	if err != nil {
		return errors.Wrap(err, "seek log db sync position")
	}
	startPos := uint32(1) // genesis events are written with the genesis
	if logged && newest > 0 {
		startPos = newest + 1
	}
	if startPos > bestNum+1 {
		startPos = bestNum + 1
	}

	if verify && startPos > 1 {
		if err := verifyLogDB(ctx, startPos-1, repo, logDB, out); err != nil {
			return errors.Wrap(err, "verify log db")
		}
	}
	if startPos > bestNum {
		return nil
	}

	fmt.Fprintln(out, ">> Syncing log db <<")
	bar := pb.New64(int64(bestNum)).
		Set64(int64(startPos - 1)).
		SetMaxWidth(90)
	bar.Output = out
	bar.Start()
	defer func() { bar.NotPrint = true }()

	for num := startPos; num <= bestNum; num++ {
		if err := writeBlockLogs(repo, logDB, num); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		bar.Add64(1)
	}
	bar.Finish()
	return nil
}

func writeBlockLogs(repo *chain.Repository, logDB *logdb.LogDB, num uint32) error {
	header, receipts, err := blockReceipts(repo, num)
	if err != nil {
		return err
	}
	w := logDB.NewWriter(num, header.Timestamp())
	for _, receipt := range receipts {
		w.Write(receipt.TxID, receipt.Origin, receipt.Events)
	}
	return w.Commit()
}

func blockReceipts(repo *chain.Repository, num uint32) (*chain.Header, tx.Receipts, error) {
	summary, err := repo.GetBlockSummary(num)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "load block #%v", num)
	}
	receipts, err := repo.GetBlockReceipts(num)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "load receipts of block #%v", num)
	}
	return summary.Header, receipts, nil
}

func verifyLogDB(ctx context.Context, endBlockNum uint32, repo *chain.Repository, logDB *logdb.LogDB, out io.Writer) error {
	fmt.Fprintln(out, ">> Verifying log db <<")
	bar := pb.New64(int64(endBlockNum)).
		Set64(0).
		SetMaxWidth(90)
	bar.Output = out
	bar.Start()
	defer func() { bar.NotPrint = true }()

	for num := uint32(1); num <= endBlockNum; num++ {
		header, receipts, err := blockReceipts(repo, num)
		if err != nil {
			return err
		}
		stored, err := logDB.FilterEvents(ctx, &logdb.EventFilter{
			Range: &logdb.Range{Unit: logdb.Block, From: uint64(num), To: uint64(num)},
		})
		if err != nil {
			return err
		}
		if err := verifyBlockLogs(header, receipts, stored, out); err != nil {
			return errors.Wrapf(err, "block #%v", num)
		}
		bar.Add64(1)
	}
	bar.Finish()
	return nil
}

// loggedEvent is the comparable form of an indexed event.
type loggedEvent struct {
	Block   uint32        `json:"block"`
	Index   uint32        `json:"index"`
	Time    uint64        `json:"time"`
	TxID    scrap.Bytes32 `json:"txID"`
	Origin  scrap.Address `json:"origin"`
	Address scrap.Address `json:"address"`
	Name    string        `json:"name"`
	Topics  []string      `json:"topics"`
	Data    string        `json:"data"`
}

func fromLogDB(ev *logdb.Event) loggedEvent {
	le := loggedEvent{
		Block:   ev.BlockNumber,
		Index:   ev.Index,
		Time:    ev.BlockTime,
		TxID:    ev.TxID,
		Origin:  ev.TxOrigin,
		Address: ev.Address,
		Name:    ev.Name,
		Topics:  []string{},
		Data:    string(ev.Data),
	}
	for _, topic := range ev.Topics {
		if topic != nil {
			le.Topics = append(le.Topics, topic.String())
		}
	}
	return le
}

func verifyBlockLogs(header *chain.Header, receipts tx.Receipts, stored []*logdb.Event, out io.Writer) error {
	expected := make([]loggedEvent, 0, len(stored))
	for _, r := range receipts {
		for _, ev := range r.Events {
			le := loggedEvent{
				Block:   header.Number(),
				Index:   uint32(len(expected)),
				Time:    header.Timestamp(),
				TxID:    r.TxID,
				Origin:  r.Origin,
				Address: ev.Address,
				Name:    ev.Name,
				Topics:  []string{},
				Data:    string(ev.Data),
			}
			for i, topic := range ev.Topics {
				if i < logdb.MaxTopics {
					le.Topics = append(le.Topics, topic.String())
				}
			}
			expected = append(expected, le)
		}
	}
	actual := make([]loggedEvent, 0, len(stored))
	for _, ev := range stored {
		actual = append(actual, fromLogDB(ev))
	}

	if diff := jsonDiff(expected, actual); diff != "" {
		fmt.Fprintln(out, "\nDiff event logs")
		fmt.Fprintln(out, diff)
		return errors.New("incorrect logs")
	}
	return nil
}

// jsonDiff returns an empty string when both values encode to the same json.
func jsonDiff(expected, actual any) string {
	e, _ := json.MarshalIndent(expected, "", "  ")
	a, _ := json.MarshalIndent(actual, "", "  ")
	if string(e) == string(a) {
		return ""
	}
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(e)),
		B:        difflib.SplitLines(string(a)),
		FromFile: "Expected",
		ToFile:   "Actual",
		Context:  1,
	})
	return diff
}
