package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"graphhub/core/events"
	"graphhub/core/genesis"
	"graphhub/core/state"
	"graphhub/core/types"
	"graphhub/native/delegation"
	"graphhub/native/follows"
	"graphhub/native/ledger"
	"graphhub/native/metatx"
	"graphhub/native/profiles"
	"graphhub/native/protocol"
	"graphhub/native/publications"
	"graphhub/observability"
)

// ProfileCollection is the ledger namespace of profile tokens.
const ProfileCollection = "profile"

// ContractHost answers the questions the hub asks about smart-contract
// accounts: ERC-1271 signature checks and ERC-721 receiver callbacks.
type ContractHost interface {
	metatx.ContractSigners
	ledger.Receivers
}

// HubConfig carries the static parameters of a hub instance.
type HubConfig struct {
	Domain          metatx.Domain
	KnownDeployment *metatx.KnownDeployment
	Contracts       ContractHost
	Feed            *events.Feed
	Logger          *slog.Logger
}

// Receipt describes a committed hub transaction.
type Receipt struct {
	Op     string
	Root   common.Hash
	Height uint64
	Result *uint256.Int
	Events []types.Event
}

// Hub is the single entry point of every state-changing protocol action.
// Transactions execute one at a time; each either commits completely or
// leaves no trace, including its events.
type Hub struct {
	mu sync.RWMutex

	state        *state.Manager
	protocol     *protocol.Engine
	profiles     *ledger.Ledger
	profileData  *profiles.Engine
	publications *publications.Engine
	follows      *follows.Engine
	delegation   *delegation.Engine
	validator    *metatx.Validator

	buffer  *events.Buffer
	feed    *events.Feed
	logger  *slog.Logger
	metrics *observability.HubMetrics
}

// NewHub wires the protocol engines over mgr.
func NewHub(mgr *state.Manager, cfg HubConfig) *Hub {
	feed := cfg.Feed
	if feed == nil {
		feed = events.NewFeed()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		state:        mgr,
		protocol:     protocol.NewEngine(mgr),
		profiles:     ledger.New(ProfileCollection, mgr),
		profileData:  profiles.NewEngine(mgr),
		publications: publications.NewEngine(mgr),
		follows:      follows.NewEngine(mgr),
		delegation:   delegation.NewEngine(mgr),
		validator:    metatx.NewValidator(cfg.Domain, mgr, cfg.Contracts),
		buffer:       &events.Buffer{},
		feed:         feed,
		logger:       logger.With("component", "hub"),
		metrics:      observability.Hub(),
	}
	if cfg.KnownDeployment != nil {
		h.validator.SetKnownDeployment(*cfg.KnownDeployment)
	}
	if cfg.Contracts != nil {
		h.profiles.SetReceivers(cfg.Contracts)
	}
	h.protocol.SetEmitter(h.buffer)
	h.profiles.SetEmitter(h.buffer)
	h.profileData.SetEmitter(h.buffer)
	h.publications.SetEmitter(h.buffer)
	h.follows.SetEmitter(h.buffer)
	h.delegation.SetEmitter(h.buffer)
	return h
}

// SetNowFunc overrides the clock used for timestamps and signature deadlines.
func (h *Hub) SetNowFunc(now func() time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.profiles.SetNowFunc(now)
	h.publications.SetNowFunc(now)
	h.validator.SetNowFunc(now)
}

// Feed returns the stream of committed events.
func (h *Hub) Feed() *events.Feed { return h.feed }

// InitGenesis applies spec when the hub has no governance yet. It is a no-op
// on an already initialised state.
func (h *Hub) InitGenesis(spec *genesis.Spec) (*Receipt, error) {
	h.mu.RLock()
	gov, err := h.protocol.Governance()
	h.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	if gov != (common.Address{}) {
		return nil, nil
	}
	return h.execute("genesis", func() (*uint256.Int, error) {
		if err := h.state.SetStateVersion(state.StateVersion); err != nil {
			return nil, err
		}
		return nil, genesis.Apply(spec, h.protocol)
	})
}

var tracer = otel.Tracer("graphhub/core")

// execute runs fn as one atomic transaction.
func (h *Hub) execute(op string, fn func() (*uint256.Int, error)) (*Receipt, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	_, span := tracer.Start(context.Background(), "hub."+op, trace.WithAttributes(attribute.String("hub.op", op)))
	defer span.End()

	start := time.Now()
	result, err := fn()
	if err != nil {
		h.buffer.Discard()
		if revertErr := h.state.Revert(); revertErr != nil {
			err = errors.Join(err, fmt.Errorf("hub: revert after failure: %w", revertErr))
		}
		h.metrics.ObserveTransaction(op, err, time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, observability.Outcome(err))
		h.logger.Info("hub transaction rejected", "op", op, "error", err)
		return nil, err
	}
	root, err := h.state.Commit()
	if err != nil {
		h.buffer.Discard()
		_ = h.state.Revert()
		h.metrics.ObserveTransaction(op, err, time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, "commit")
		h.logger.Error("hub commit failed", "op", op, "error", err)
		return nil, err
	}
	span.SetAttributes(attribute.Int64("hub.height", int64(h.state.Height())))
	flushed := h.buffer.Flush(h.feed)
	receipt := &Receipt{Op: op, Root: root, Height: h.state.Height(), Result: result}
	eventMetrics := observability.Events()
	for _, evt := range flushed {
		eventMetrics.RecordEvent(evt.EventType())
		if typed := events.ToTyped(evt); typed != nil {
			receipt.Events = append(receipt.Events, *typed)
		}
	}
	h.metrics.ObserveTransaction(op, nil, time.Since(start))
	h.metrics.SetHeight(receipt.Height)
	if st, stErr := h.protocol.State(); stErr == nil {
		h.metrics.SetProtocolState(uint8(st))
	}
	h.logger.Debug("hub transaction committed", "op", op, "height", receipt.Height, "root", root.Hex())
	return receipt, nil
}

func resultID(receipt *Receipt) uint256.Int {
	if receipt == nil || receipt.Result == nil {
		return uint256.Int{}
	}
	return *receipt.Result
}

func idResult(id uint256.Int, err error) (*uint256.Int, error) {
	if err != nil {
		return nil, err
	}
	return &id, nil
}
