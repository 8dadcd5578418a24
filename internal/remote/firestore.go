package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Womackv3/osrs-checklist-app-sub000/internal/model"
)

// FirestoreStore keeps goals at users/{uid}/goals/{goalId}.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(ctx context.Context, projectID string) (*FirestoreStore, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &FirestoreStore{client: client}, nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

func (s *FirestoreStore) goalsCol(userID string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(userID).Collection("goals")
}

func (s *FirestoreStore) Save(ctx context.Context, userID string, goal *model.Goal) error {
	if err := checkIdentity("save", userID); err != nil {
		return err
	}
	_, err := s.goalsCol(userID).Doc(goal.ID).Set(ctx, goal.Record())
	return storageError("save", userID, err)
}

func (s *FirestoreStore) LoadAll(ctx context.Context, userID string) ([]*model.Goal, error) {
	if err := checkIdentity("load", userID); err != nil {
		return nil, err
	}

	iter := s.goalsCol(userID).OrderBy("createdAt", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	goals := []*model.Goal{}
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, storageError("load", userID, err)
		}
		if g := decodeGoal(doc, userID); g != nil {
			goals = append(goals, g)
		}
	}
	return goals, nil
}

// Delete removes the document. Deleting a missing document succeeds.
func (s *FirestoreStore) Delete(ctx context.Context, userID, goalID string) error {
	if err := checkIdentity("delete", userID); err != nil {
		return err
	}
	_, err := s.goalsCol(userID).Doc(goalID).Delete(ctx)
	if status.Code(err) == codes.NotFound {
		return nil
	}
	return storageError("delete", userID, err)
}

// Subscribe listens to query snapshots and delivers the whole collection on
// every change.
func (s *FirestoreStore) Subscribe(ctx context.Context, userID string) (<-chan []*model.Goal, error) {
	if err := checkIdentity("subscribe", userID); err != nil {
		return nil, err
	}

	ch := make(chan []*model.Goal, 1)
	snapshots := s.goalsCol(userID).Snapshots(ctx)

	go func() {
		defer close(ch)
		defer snapshots.Stop()

		for {
			snap, err := snapshots.Next()
			if err != nil {
				if ctx.Err() == nil && status.Code(err) != codes.Canceled {
					slog.Warn("firestore goal listener stopped", "error", err, "user_id", userID)
				}
				return
			}

			docs, err := snap.Documents.GetAll()
			if err != nil {
				slog.Warn("failed to read goal snapshot", "error", err, "user_id", userID)
				continue
			}

			goals := make([]*model.Goal, 0, len(docs))
			for _, doc := range docs {
				if g := decodeGoal(doc, userID); g != nil {
					goals = append(goals, g)
				}
			}

			select {
			case ch <- goals:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}

func decodeGoal(doc *firestore.DocumentSnapshot, userID string) *model.Goal {
	var record model.GoalRecord
	if err := doc.DataTo(&record); err != nil {
		slog.Warn("skipping undecodable goal document", "error", err, "doc_id", doc.Ref.ID, "user_id", userID)
		return nil
	}
	if record.ID == "" {
		record.ID = doc.Ref.ID
	}
	g, err := record.Goal()
	if err != nil {
		slog.Warn("skipping invalid goal document", "error", err, "doc_id", doc.Ref.ID, "user_id", userID)
		return nil
	}
	return g
}
