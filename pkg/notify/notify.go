package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"go.uber.org/zap"
)

// Category classifies a transaction notification
type Category string

const (
	CategoryPending Category = "pending"
	CategorySuccess Category = "success"
	CategoryError   Category = "error"
)

// Sink receives transaction notifications
type Sink interface {
	Notify(ctx context.Context, txHash string, category Category)
}

// ExplorerLink builds a block explorer URL for a transaction hash
func ExplorerLink(explorerURL, txHash string) string {
	if explorerURL == "" || txHash == "" {
		return ""
	}
	return strings.TrimRight(explorerURL, "/") + "/tx/" + txHash
}

// ConsoleSink prints notifications as coloured toasts
type ConsoleSink struct {
	mu          sync.Mutex
	out         io.Writer
	explorerURL string
	logger      *zap.Logger
}

// NewConsoleSink writes to stdout
func NewConsoleSink(explorerURL string, logger *zap.Logger) *ConsoleSink {
	return NewWriterSink(os.Stdout, explorerURL, logger)
}

// NewWriterSink writes to w
func NewWriterSink(w io.Writer, explorerURL string, logger *zap.Logger) *ConsoleSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleSink{out: w, explorerURL: explorerURL, logger: logger}
}

func (s *ConsoleSink) Notify(ctx context.Context, txHash string, category Category) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var label string
	switch category {
	case CategorySuccess:
		label = color.GreenString("✓ Transaction confirmed")
	case CategoryError:
		label = color.RedString("✗ Transaction failed")
	default:
		label = color.YellowString("… Transaction submitted")
	}

	fmt.Fprintf(s.out, "%s: %s\n", label, txHash)
	if link := ExplorerLink(s.explorerURL, txHash); link != "" {
		fmt.Fprintf(s.out, "  %s\n", color.CyanString(link))
	}

	s.logger.Info("transaction notification",
		zap.String("tx_hash", txHash),
		zap.String("category", string(category)),
	)
}

// Recorder keeps notifications in memory
type Recorder struct {
	mu     sync.Mutex
	Events []Event
}

// Event is one recorded notification
type Event struct {
	TxHash   string
	Category Category
}

func (r *Recorder) Notify(_ context.Context, txHash string, category Category) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, Event{TxHash: txHash, Category: category})
}

// Snapshot returns a copy of the recorded events
func (r *Recorder) Snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.Events...)
}
