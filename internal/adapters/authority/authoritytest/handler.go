package authoritytest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"

	"github.com/vncsmyrnk/blindpoll/internal/adapters/authority/rest"
	"github.com/vncsmyrnk/blindpoll/internal/core/domain"
)

// IssueToken returns a bearer token for voter, accepted by Handler.
func (a *Authority) IssueToken(voter string) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   voter,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *Authority) voterFrom(r *http.Request) (string, bool) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return "", false
	}
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrQuestionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrGone):
		status = http.StatusGone
	case errors.Is(err, domain.ErrAuthorityUnavailable):
		status = http.StatusServiceUnavailable
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// Handler serves the authority HTTP contract. Every route requires a token
// from IssueToken.
func (a *Authority) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if _, ok := a.voterFrom(req); !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, req)
		})
	})

	r.Get("/ballots/keys/", func(w http.ResponseWriter, req *http.Request) {
		key, err := a.keys()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, rest.KeysDTO{Public: key.E.String(), Modulus: key.N.String()})
	})
	r.Get("/ballots/", func(w http.ResponseWriter, req *http.Request) {
		questions, err := a.openQuestions()
		if err != nil {
			writeError(w, err)
			return
		}
		dtos := make([]rest.QuestionDTO, 0, len(questions))
		for _, q := range questions {
			dtos = append(dtos, rest.QuestionFromDomain(q))
		}
		writeJSON(w, dtos)
	})
	r.Get("/questions/{id}", a.withQuestion(func(w http.ResponseWriter, req *http.Request, voter string, id int64) {
		q, err := a.getQuestion(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, rest.QuestionFromDomain(q))
	}))

	r.Route("/ballot/{id}", func(r chi.Router) {
		r.Post("/sign", a.withQuestion(a.handleSign(a.signResponse)))
		r.Post("/signme", a.withQuestion(a.handleSign(a.signPersonal)))
		r.Post("/vote", a.withQuestion(func(w http.ResponseWriter, req *http.Request, voter string, id int64) {
			var p domain.VotePayload
			if err := json.NewDecoder(req.Body).Decode(&p); err != nil {
				http.Error(w, "invalid request body", http.StatusBadRequest)
				return
			}
			if err := a.vote(OpVote, id, []domain.VotePayload{p}); err != nil {
				writeError(w, err)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		r.Post("/vote_rank", a.withQuestion(func(w http.ResponseWriter, req *http.Request, voter string, id int64) {
			var ps []domain.VotePayload
			if err := json.NewDecoder(req.Body).Decode(&ps); err != nil {
				http.Error(w, "invalid request body", http.StatusBadRequest)
				return
			}
			if err := a.vote(OpVoteRank, id, ps); err != nil {
				writeError(w, err)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		r.Get("/verify", a.withQuestion(func(w http.ResponseWriter, req *http.Request, voter string, id int64) {
			records, err := a.verificationRecords(id)
			if err != nil {
				writeError(w, err)
				return
			}
			dtos := make([]rest.RecordDTO, 0, len(records))
			for _, rec := range records {
				dtos = append(dtos, rest.RecordFromDomain(rec))
			}
			writeJSON(w, dtos)
		}))
	})
	return r
}

type questionHandler func(w http.ResponseWriter, req *http.Request, voter string, id int64)

func (a *Authority) withQuestion(h questionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid question id", http.StatusBadRequest)
			return
		}
		voter, _ := a.voterFrom(req)
		h(w, req, voter, id)
	}
}

func (a *Authority) handleSign(sign func(voter string, id int64, blinded string) (string, error)) questionHandler {
	return func(w http.ResponseWriter, req *http.Request, voter string, id int64) {
		var body rest.SignRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.B == "" {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		signed, err := sign(voter, id, body.B)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(signed))
	}
}
