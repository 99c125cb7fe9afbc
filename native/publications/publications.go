package publications

import (
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	hubErrors "graphhub/core/errors"
	"graphhub/core/events"
	"graphhub/core/types"
)

type publicationState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

// Kind distinguishes the publication shapes.
type Kind uint8

const (
	KindNone Kind = iota
	KindPost
	KindComment
	KindMirror
	KindQuote
)

func (k Kind) String() string {
	switch k {
	case KindPost:
		return "post"
	case KindComment:
		return "comment"
	case KindMirror:
		return "mirror"
	case KindQuote:
		return "quote"
	default:
		return "none"
	}
}

// Publication is the stored record. Content and module fields are opaque.
type Publication struct {
	Kind             Kind
	ContentURI       string
	PointedProfileID uint256.Int
	PointedPubID     uint256.Int
	CollectModule    common.Address
	ReferenceModule  common.Address
	Timestamp        uint64
}

var (
	pubPrefix     = []byte("publications/record/")
	countPrefix   = []byte("publications/count/")
	collectPrefix = []byte("publications/collect/")

	errPublicationsUninitialised = errors.New("publications: not initialised")
)

// Engine records publications per profile.
type Engine struct {
	state   publicationState
	emitter events.Emitter
	nowFn   func() time.Time
}

// NewEngine constructs a publication engine over state.
func NewEngine(state publicationState) *Engine {
	return &Engine{
		state:   state,
		emitter: events.NoopEmitter{},
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
}

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used for publication timestamps.
func (e *Engine) SetNowFunc(now func() time.Time) {
	if now == nil {
		return
	}
	e.nowFn = now
}

func idKey(prefix []byte, ids ...uint256.Int) []byte {
	buf := make([]byte, 0, len(prefix)+32*len(ids))
	buf = append(buf, prefix...)
	for _, id := range ids {
		word := id.Bytes32()
		buf = append(buf, word[:]...)
	}
	return buf
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errPublicationsUninitialised
	}
	return nil
}

// PubCount returns the number of publications made by profileID.
func (e *Engine) PubCount(profileID uint256.Int) (uint256.Int, error) {
	if err := e.ready(); err != nil {
		return uint256.Int{}, err
	}
	var count uint256.Int
	if _, err := e.state.KVGet(idKey(countPrefix, profileID), &count); err != nil {
		return uint256.Int{}, fmt.Errorf("publications: load count: %w", err)
	}
	return count, nil
}

// Get returns publication pubID of profileID.
func (e *Engine) Get(profileID, pubID uint256.Int) (Publication, error) {
	if err := e.ready(); err != nil {
		return Publication{}, err
	}
	var pub Publication
	ok, err := e.state.KVGet(idKey(pubPrefix, profileID, pubID), &pub)
	if err != nil {
		return Publication{}, fmt.Errorf("publications: load record: %w", err)
	}
	if !ok || pub.Kind == KindNone {
		return Publication{}, hubErrors.ErrPublicationDoesNotExist
	}
	return pub, nil
}

func (e *Engine) store(profileID uint256.Int, pub Publication) (uint256.Int, error) {
	count, err := e.PubCount(profileID)
	if err != nil {
		return uint256.Int{}, err
	}
	var pubID uint256.Int
	pubID.AddUint64(&count, 1)
	pub.Timestamp = uint64(e.nowFn().Unix())
	if err := e.state.KVPut(idKey(pubPrefix, profileID, pubID), &pub); err != nil {
		return uint256.Int{}, fmt.Errorf("publications: store record: %w", err)
	}
	if err := e.state.KVPut(idKey(countPrefix, profileID), &pubID); err != nil {
		return uint256.Int{}, fmt.Errorf("publications: store count: %w", err)
	}
	e.emitter.Emit(events.PublicationCreated{
		Kind:             pub.Kind.String(),
		ProfileID:        profileID,
		PubID:            pubID,
		ContentURI:       pub.ContentURI,
		PointedProfileID: pub.PointedProfileID,
		PointedPubID:     pub.PointedPubID,
		Timestamp:        pub.Timestamp,
	})
	return pubID, nil
}

// ValidatePointed checks that a referencing publication may point at
// (profileID, pubID): it must exist and must not be a mirror.
func (e *Engine) ValidatePointed(profileID, pubID uint256.Int) error {
	pub, err := e.Get(profileID, pubID)
	if err != nil {
		return err
	}
	if pub.Kind == KindMirror {
		return hubErrors.ErrInvalidParameter
	}
	return nil
}

func validateReferrers(profileIDs, pubIDs []uint256.Int) error {
	if len(profileIDs) != len(pubIDs) {
		return hubErrors.ErrArrayMismatch
	}
	return nil
}

// Post records a new root publication and returns its id.
func (e *Engine) Post(p types.PostParams) (uint256.Int, error) {
	return e.store(p.ProfileID, Publication{
		Kind:            KindPost,
		ContentURI:      p.ContentURI,
		CollectModule:   p.CollectModule,
		ReferenceModule: p.ReferenceModule,
	})
}

func (e *Engine) referencing(kind Kind, p types.CommentParams) (uint256.Int, error) {
	if err := validateReferrers(p.ReferrerProfileIDs, p.ReferrerPubIDs); err != nil {
		return uint256.Int{}, err
	}
	if err := e.ValidatePointed(p.PointedProfileID, p.PointedPubID); err != nil {
		return uint256.Int{}, err
	}
	return e.store(p.ProfileID, Publication{
		Kind:             kind,
		ContentURI:       p.ContentURI,
		PointedProfileID: p.PointedProfileID,
		PointedPubID:     p.PointedPubID,
		CollectModule:    p.CollectModule,
		ReferenceModule:  p.ReferenceModule,
	})
}

// Comment records a comment on an existing publication.
func (e *Engine) Comment(p types.CommentParams) (uint256.Int, error) {
	return e.referencing(KindComment, p)
}

// Quote records a quote of an existing publication.
func (e *Engine) Quote(p types.QuoteParams) (uint256.Int, error) {
	return e.referencing(KindQuote, types.CommentParams(p))
}

// Mirror records a mirror. Mirrors carry no content of their own.
func (e *Engine) Mirror(p types.MirrorParams) (uint256.Int, error) {
	if err := validateReferrers(p.ReferrerProfileIDs, p.ReferrerPubIDs); err != nil {
		return uint256.Int{}, err
	}
	if err := e.ValidatePointed(p.PointedProfileID, p.PointedPubID); err != nil {
		return uint256.Int{}, err
	}
	return e.store(p.ProfileID, Publication{
		Kind:             KindMirror,
		ContentURI:       p.MetadataURI,
		PointedProfileID: p.PointedProfileID,
		PointedPubID:     p.PointedPubID,
	})
}

// ResolveCollectable returns the publication a collect lands on: mirrors
// resolve to the publication they point at.
func (e *Engine) ResolveCollectable(profileID, pubID uint256.Int) (uint256.Int, uint256.Int, error) {
	pub, err := e.Get(profileID, pubID)
	if err != nil {
		return uint256.Int{}, uint256.Int{}, err
	}
	if pub.Kind == KindMirror {
		return pub.PointedProfileID, pub.PointedPubID, nil
	}
	return profileID, pubID, nil
}

// Collect records that collectorProfileID collected the publication and
// returns the resolved publication coordinates.
func (e *Engine) Collect(collector common.Address, p types.CollectParams) (uint256.Int, uint256.Int, error) {
	profileID, pubID, err := e.ResolveCollectable(p.PublicationCollectedProfileID, p.PublicationCollectedID)
	if err != nil {
		return uint256.Int{}, uint256.Int{}, err
	}
	count, err := e.CollectCount(profileID, pubID)
	if err != nil {
		return uint256.Int{}, uint256.Int{}, err
	}
	count++
	if err := e.state.KVPut(idKey(collectPrefix, profileID, pubID), count); err != nil {
		return uint256.Int{}, uint256.Int{}, fmt.Errorf("publications: store collect count: %w", err)
	}
	e.emitter.Emit(events.PublicationCollected{
		CollectorProfileID: p.CollectorProfileID,
		Collector:          collector,
		ProfileID:          profileID,
		PubID:              pubID,
		ReferrerProfileID:  p.ReferrerProfileID,
		ReferrerPubID:      p.ReferrerPubID,
	})
	return profileID, pubID, nil
}

// CollectCount returns how many times a publication was collected.
func (e *Engine) CollectCount(profileID, pubID uint256.Int) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	var count uint64
	if _, err := e.state.KVGet(idKey(collectPrefix, profileID, pubID), &count); err != nil {
		return 0, fmt.Errorf("publications: load collect count: %w", err)
	}
	return count, nil
}
