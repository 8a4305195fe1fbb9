package main

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/bhoriuchi/graphql-subscriptions-transport/logger"
	"github.com/bhoriuchi/graphql-subscriptions-transport/pubsub"
	"github.com/google/uuid"
	"github.com/graphql-go/graphql"
)

const noteAddedTopic = "noteAdded"

// Note a note
type Note struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

type noteStore struct {
	mx    sync.RWMutex
	notes []Note
}

func (s *noteStore) list() []Note {
	s.mx.RLock()
	defer s.mx.RUnlock()
	out := make([]Note, len(s.notes))
	copy(out, s.notes)
	return out
}

func (s *noteStore) add(content string) Note {
	note := Note{
		ID:        uuid.New().String(),
		Content:   content,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	s.mx.Lock()
	s.notes = append(s.notes, note)
	s.mx.Unlock()
	return note
}

func buildSchema(ps pubsub.PubSub, l *logger.LogWrapper) (*graphql.Schema, error) {
	store := &noteStore{}

	noteType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Note",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"content":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"createdAt": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{
			Name: "Query",
			Fields: graphql.Fields{
				"notes": &graphql.Field{
					Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(noteType))),
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						return store.list(), nil
					},
				},
			},
		}),
		Mutation: graphql.NewObject(graphql.ObjectConfig{
			Name: "Mutation",
			Fields: graphql.Fields{
				"addNote": &graphql.Field{
					Type: noteType,
					Args: graphql.FieldConfigArgument{
						"content": &graphql.ArgumentConfig{
							Type: graphql.NewNonNull(graphql.String),
						},
					},
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						note := store.add(p.Args["content"].(string))

						j, err := json.Marshal(note)
						if err != nil {
							return nil, err
						}
						if err := ps.Publish(p.Context, noteAddedTopic, j); err != nil {
							l.WithError(err).Errorf("failed to publish note %s", note.ID)
						}
						return note, nil
					},
				},
			},
		}),
		Subscription: graphql.NewObject(graphql.ObjectConfig{
			Name: "Subscription",
			Fields: graphql.Fields{
				"noteAdded": &graphql.Field{
					Type: noteType,
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						return p.Source, nil
					},
					Subscribe: func(p graphql.ResolveParams) (interface{}, error) {
						payloads, err := ps.Subscribe(p.Context, noteAddedTopic)
						if err != nil {
							return nil, err
						}

						c := make(chan interface{})
						go forwardNotes(p.Context, payloads, c, l)
						return c, nil
					},
				},
			},
		}),
	})

	if err != nil {
		return nil, err
	}

	return &schema, nil
}

func forwardNotes(ctx context.Context, payloads <-chan []byte, c chan<- interface{}, l *logger.LogWrapper) {
	defer close(c)

	for payload := range payloads {
		var note Note
		if err := json.Unmarshal(payload, &note); err != nil {
			l.WithError(err).Warnf("dropping malformed note")
			continue
		}

		select {
		case <-ctx.Done():
			return
		case c <- note:
		}
	}
}
