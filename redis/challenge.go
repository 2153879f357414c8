package redis

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/meinhoongagan/servicemarket/utils"
	"github.com/redis/go-redis/v9"
)

var (
	ErrChallengeExpired = errors.New("no active OTP for this phone, request a new one")
	ErrInvalidOTP       = errors.New("invalid OTP")
	ErrTooManyAttempts  = errors.New("too many wrong attempts, request a new OTP")
	ErrResendCooldown   = errors.New("an OTP was sent recently, please wait before requesting another")
)

// ChallengeStore keeps one pending OTP per phone number. A challenge is a
// hash {code, attempts} at otp:{phone} that expires after ttl and is deleted
// as soon as it is used.
type ChallengeStore struct {
	rdb         *redis.Client
	ttl         time.Duration
	maxAttempts int
	cooldown    time.Duration

	// generate is swapped in tests.
	generate func() (string, error)
}

func NewChallengeStore(rdb *redis.Client, ttl time.Duration, maxAttempts int, cooldown time.Duration) *ChallengeStore {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &ChallengeStore{
		rdb:         rdb,
		ttl:         ttl,
		maxAttempts: maxAttempts,
		cooldown:    cooldown,
		generate:    utils.GenerateOTP,
	}
}

func challengeKey(phone string) string { return "otp:" + phone }

func cooldownKey(phone string) string { return "otp:cooldown:" + phone }

// Issue creates a fresh code for phone, replacing any earlier challenge.
func (s *ChallengeStore) Issue(ctx context.Context, phone string) (string, error) {
	if s.cooldown > 0 {
		ok, err := s.rdb.SetNX(ctx, cooldownKey(phone), 1, s.cooldown).Result()
		if err != nil {
			return "", err
		}
		if !ok {
			return "", ErrResendCooldown
		}
	}

	code, err := s.generate()
	if err != nil {
		return "", err
	}

	key := challengeKey(phone)
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, "code", code, "attempts", 0)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return "", err
	}
	return code, nil
}

// takeAttempt atomically counts one attempt against an existing challenge and
// returns {code, attempts}. A missing challenge yields redis.Nil and is never
// recreated.
var takeAttempt = redis.NewScript(`
local code = redis.call('HGET', KEYS[1], 'code')
if not code then
  return false
end
local attempts = redis.call('HINCRBY', KEYS[1], 'attempts', 1)
return {code, attempts}
`)

// Verify checks code against the pending challenge for phone. A correct code
// consumes the challenge; a wrong one counts towards maxAttempts. The attempt
// is counted before the comparison, so parallel guesses each use up a try.
func (s *ChallengeStore) Verify(ctx context.Context, phone, code string) error {
	key := challengeKey(phone)
	res, err := takeAttempt.Run(ctx, s.rdb, []string{key}).Slice()
	if errors.Is(err, redis.Nil) {
		return ErrChallengeExpired
	}
	if err != nil {
		return err
	}
	if len(res) != 2 {
		return errors.New("unexpected OTP challenge reply")
	}
	stored, _ := res[0].(string)
	attempts, _ := res[1].(int64)

	if attempts > int64(s.maxAttempts) {
		s.rdb.Del(ctx, key)
		return ErrTooManyAttempts
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return ErrInvalidOTP
	}

	// Only the request that actually deletes the key wins; a concurrent
	// duplicate sees the challenge as gone.
	deleted, err := s.rdb.Del(ctx, key).Result()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrChallengeExpired
	}
	return nil
}

// Clear drops any pending challenge and cooldown for phone.
func (s *ChallengeStore) Clear(ctx context.Context, phone string) error {
	return s.rdb.Del(ctx, challengeKey(phone), cooldownKey(phone)).Err()
}
