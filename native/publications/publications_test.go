package publications

import (
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	hubErrors "graphhub/core/errors"
	"graphhub/core/types"
)

type memoryState struct {
	data map[string][]byte
}

func newMemoryState() *memoryState {
	return &memoryState{data: make(map[string][]byte)}
}

func (m *memoryState) KVGet(key []byte, out interface{}) (bool, error) {
	raw, ok := m.data[string(key)]
	if !ok || len(raw) == 0 {
		return false, nil
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *memoryState) KVPut(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	m.data[string(key)] = encoded
	return nil
}

func id(v uint64) uint256.Int { return *uint256.NewInt(v) }

func newTestEngine() *Engine {
	e := NewEngine(newMemoryState())
	e.SetNowFunc(func() time.Time { return time.Unix(1_700_000_000, 0) })
	return e
}

func TestPostIDsIncrementPerProfile(t *testing.T) {
	e := newTestEngine()
	for want := uint64(1); want <= 3; want++ {
		pubID, err := e.Post(types.PostParams{ProfileID: id(1), ContentURI: "ipfs://p"})
		if err != nil {
			t.Fatalf("post: %v", err)
		}
		if pubID.Uint64() != want {
			t.Fatalf("expected pub id %d, got %s", want, pubID.Dec())
		}
	}
	other, err := e.Post(types.PostParams{ProfileID: id(2), ContentURI: "ipfs://q"})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if other.Uint64() != 1 {
		t.Fatalf("pub ids must be per profile, got %s", other.Dec())
	}
	pub, err := e.Get(id(1), id(2))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if pub.Kind != KindPost || pub.Timestamp != 1_700_000_000 {
		t.Fatalf("unexpected publication: %+v", pub)
	}
}

func TestReferencingPublications(t *testing.T) {
	e := newTestEngine()
	if _, err := e.Post(types.PostParams{ProfileID: id(1), ContentURI: "ipfs://root"}); err != nil {
		t.Fatalf("post: %v", err)
	}
	comment := types.CommentParams{ProfileID: id(2), ContentURI: "ipfs://c", PointedProfileID: id(1), PointedPubID: id(1)}
	if _, err := e.Comment(comment); err != nil {
		t.Fatalf("comment: %v", err)
	}
	if _, err := e.Quote(types.QuoteParams(comment)); err != nil {
		t.Fatalf("quote: %v", err)
	}
	mirrorID, err := e.Mirror(types.MirrorParams{ProfileID: id(2), PointedProfileID: id(1), PointedPubID: id(1)})
	if err != nil {
		t.Fatalf("mirror: %v", err)
	}
	if mirrorID.Uint64() != 3 {
		t.Fatalf("expected mirror to be third publication, got %s", mirrorID.Dec())
	}

	pointAtMirror := comment
	pointAtMirror.PointedProfileID, pointAtMirror.PointedPubID = id(2), mirrorID
	if _, err := e.Comment(pointAtMirror); !errors.Is(err, hubErrors.ErrInvalidParameter) {
		t.Fatalf("expected mirrors to be unpointable, got %v", err)
	}
	missing := comment
	missing.PointedPubID = id(42)
	if _, err := e.Comment(missing); !errors.Is(err, hubErrors.ErrPublicationDoesNotExist) {
		t.Fatalf("expected publication does not exist, got %v", err)
	}
	mismatch := comment
	mismatch.ReferrerProfileIDs = []uint256.Int{id(1)}
	if _, err := e.Comment(mismatch); !errors.Is(err, hubErrors.ErrArrayMismatch) {
		t.Fatalf("expected array mismatch, got %v", err)
	}
}

func TestCollectResolvesMirrors(t *testing.T) {
	e := newTestEngine()
	if _, err := e.Post(types.PostParams{ProfileID: id(1), ContentURI: "ipfs://root"}); err != nil {
		t.Fatalf("post: %v", err)
	}
	mirrorID, err := e.Mirror(types.MirrorParams{ProfileID: id(2), PointedProfileID: id(1), PointedPubID: id(1)})
	if err != nil {
		t.Fatalf("mirror: %v", err)
	}
	collector := common.HexToAddress("0x03")
	profileID, pubID, err := e.Collect(collector, types.CollectParams{
		PublicationCollectedProfileID: id(2),
		PublicationCollectedID:        mirrorID,
		CollectorProfileID:            id(3),
	})
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if profileID.Uint64() != 1 || pubID.Uint64() != 1 {
		t.Fatalf("expected collect to land on root, got %s/%s", profileID.Dec(), pubID.Dec())
	}
	count, err := e.CollectCount(id(1), id(1))
	if err != nil || count != 1 {
		t.Fatalf("expected one collect, got %d (%v)", count, err)
	}
	if _, _, err := e.Collect(collector, types.CollectParams{PublicationCollectedProfileID: id(9), PublicationCollectedID: id(1)}); !errors.Is(err, hubErrors.ErrPublicationDoesNotExist) {
		t.Fatalf("expected publication does not exist, got %v", err)
	}
}
