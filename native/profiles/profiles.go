package profiles

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	hubErrors "graphhub/core/errors"
	"graphhub/core/events"
	"graphhub/core/types"
)

type profileState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
}

// Profile holds the opaque settings attached to a profile token. Module
// addresses and URIs are never interpreted here.
type Profile struct {
	ImageURI             string
	MetadataURI          string
	FollowModule         common.Address
	FollowModuleInitData []byte
	FollowNFTURI         string
}

var (
	profilePrefix = []byte("profiles/record/")
	counterKey    = []byte("profiles/count")

	errProfilesUninitialised = errors.New("profiles: not initialised")
)

// Engine stores profile records keyed by profile id.
type Engine struct {
	state   profileState
	emitter events.Emitter
}

// NewEngine constructs a profile engine over state.
func NewEngine(state profileState) *Engine {
	return &Engine{state: state, emitter: events.NoopEmitter{}}
}

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func profileKey(id uint256.Int) []byte {
	word := id.Bytes32()
	buf := make([]byte, 0, len(profilePrefix)+len(word))
	buf = append(buf, profilePrefix...)
	return append(buf, word[:]...)
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errProfilesUninitialised
	}
	return nil
}

// Count returns how many profile ids have been allocated.
func (e *Engine) Count() (uint256.Int, error) {
	if err := e.ready(); err != nil {
		return uint256.Int{}, err
	}
	var count uint256.Int
	if _, err := e.state.KVGet(counterKey, &count); err != nil {
		return uint256.Int{}, fmt.Errorf("profiles: load counter: %w", err)
	}
	return count, nil
}

// NextID allocates the next profile id. Ids start at 1 and are never reused.
func (e *Engine) NextID() (uint256.Int, error) {
	count, err := e.Count()
	if err != nil {
		return uint256.Int{}, err
	}
	var next uint256.Int
	next.AddUint64(&count, 1)
	if err := e.state.KVPut(counterKey, &next); err != nil {
		return uint256.Int{}, fmt.Errorf("profiles: store counter: %w", err)
	}
	return next, nil
}

// Create stores the record of a freshly minted profile.
func (e *Engine) Create(id uint256.Int, creator common.Address, p types.CreateProfileParams, timestamp uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	profile := Profile{
		ImageURI:             p.ImageURI,
		FollowModule:         p.FollowModule,
		FollowModuleInitData: p.FollowModuleInitData,
		FollowNFTURI:         p.FollowNFTURI,
	}
	if err := e.put(id, profile); err != nil {
		return err
	}
	e.emitter.Emit(events.ProfileCreated{
		ProfileID:    id,
		Creator:      creator,
		To:           p.To,
		ImageURI:     p.ImageURI,
		FollowModule: p.FollowModule,
		FollowNFTURI: p.FollowNFTURI,
		Timestamp:    timestamp,
	})
	return nil
}

// Get returns the record of id.
func (e *Engine) Get(id uint256.Int) (Profile, error) {
	if err := e.ready(); err != nil {
		return Profile{}, err
	}
	var profile Profile
	ok, err := e.state.KVGet(profileKey(id), &profile)
	if err != nil {
		return Profile{}, fmt.Errorf("profiles: load record: %w", err)
	}
	if !ok {
		return Profile{}, hubErrors.ErrTokenDoesNotExist
	}
	return profile, nil
}

func (e *Engine) put(id uint256.Int, profile Profile) error {
	if err := e.state.KVPut(profileKey(id), &profile); err != nil {
		return fmt.Errorf("profiles: store record: %w", err)
	}
	return nil
}

func (e *Engine) update(id uint256.Int, eventType, value string, mutate func(*Profile)) error {
	profile, err := e.Get(id)
	if err != nil {
		return err
	}
	mutate(&profile)
	if err := e.put(id, profile); err != nil {
		return err
	}
	e.emitter.Emit(events.ProfileFieldSet{Type: eventType, ProfileID: id, Value: value})
	return nil
}

// SetMetadataURI replaces the metadata URI of id.
func (e *Engine) SetMetadataURI(id uint256.Int, uri string) error {
	return e.update(id, events.TypeProfileMetadataSet, uri, func(p *Profile) { p.MetadataURI = uri })
}

// SetImageURI replaces the image URI of id.
func (e *Engine) SetImageURI(id uint256.Int, uri string) error {
	return e.update(id, events.TypeProfileImageURISet, uri, func(p *Profile) { p.ImageURI = uri })
}

// SetFollowNFTURI replaces the follow NFT URI of id.
func (e *Engine) SetFollowNFTURI(id uint256.Int, uri string) error {
	return e.update(id, events.TypeFollowNFTURISet, uri, func(p *Profile) { p.FollowNFTURI = uri })
}

// SetFollowModule replaces the follow module of id.
func (e *Engine) SetFollowModule(id uint256.Int, module common.Address, initData []byte) error {
	return e.update(id, events.TypeFollowModuleSet, module.Hex(), func(p *Profile) {
		p.FollowModule = module
		p.FollowModuleInitData = initData
	})
}

// Delete removes the record of a burned profile.
func (e *Engine) Delete(id uint256.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.state.KVDelete(profileKey(id)); err != nil {
		return fmt.Errorf("profiles: delete record: %w", err)
	}
	return nil
}
