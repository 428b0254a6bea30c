package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/roach88/blockduel/internal/matchmaker"
)

// CookieName carries the participant id.
const CookieName = "participant"

// touchInterval limits how often a session's last-seen time is written.
const touchInterval = time.Minute

// registerRetries bounds attempts when a freshly drawn id is claimed by a
// concurrent request between the existence check and the insert.
const registerRetries = 3

var errUnknownParticipant = errors.New("unknown participant")

// session is the cached view of a registered participant.
type session struct {
	id      matchmaker.ParticipantID
	touched time.Time
}

// identify resolves the request's participant, registering a new one and
// setting the cookie when the request carries no known id.
func (s *Server) identify(w http.ResponseWriter, r *http.Request) (matchmaker.ParticipantID, error) {
	ctx := r.Context()

	if id, ok := cookieID(r); ok {
		sess, err := s.sessions.GetOrCreate(id, func() (session, error) {
			exists, err := s.registry.ParticipantExists(ctx, int64(id))
			if err != nil {
				return session{}, err
			}
			if !exists {
				return session{}, errUnknownParticipant
			}
			return session{id: id}, nil
		})
		switch {
		case err == nil:
			s.touch(ctx, sess)
			return id, nil
		case errors.Is(err, errUnknownParticipant):
			s.logger.Debug("cookie names unknown participant", "participant", int64(id))
		default:
			return 0, err
		}
	}

	id, err := s.register(ctx)
	if err != nil {
		return 0, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    strconv.FormatInt(int64(id), 10),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id, nil
}

func cookieID(r *http.Request) (matchmaker.ParticipantID, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return 0, false
	}
	n, err := strconv.ParseInt(c.Value, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return matchmaker.ParticipantID(n), true
}

// register draws a free id and claims it in the registry.
func (s *Server) register(ctx context.Context) (matchmaker.ParticipantID, error) {
	exists := func(ctx context.Context, id matchmaker.ParticipantID) (bool, error) {
		return s.registry.ParticipantExists(ctx, int64(id))
	}

	for i := 0; i < registerRetries; i++ {
		id, err := matchmaker.FindFreeID(ctx, s.ids, exists, s.idAttempts)
		if err != nil {
			return 0, err
		}
		now := s.now()
		won, err := s.registry.RegisterParticipant(ctx, int64(id), now)
		if err != nil {
			return 0, err
		}
		if won {
			s.sessions.Put(id, session{id: id, touched: now})
			s.logger.Info("participant registered", "participant", int64(id))
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: lost %d registration races", matchmaker.ErrNoFreeID, registerRetries)
}

// touch records activity at most once per touchInterval. Failures are
// logged and otherwise ignored.
func (s *Server) touch(ctx context.Context, sess session) {
	now := s.now()
	if now.Sub(sess.touched) < touchInterval {
		return
	}
	s.sessions.Mutate(sess.id, func(v *session) { v.touched = now })
	if _, err := s.registry.TouchParticipant(ctx, int64(sess.id), now); err != nil {
		s.logger.Warn("touch participant failed", "participant", int64(sess.id), "error", err)
	}
}
