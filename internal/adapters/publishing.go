package adapters

import (
	"context"
	"encoding/json"
	"log/slog"

	"gestaosocial/internal/amqp"
	"gestaosocial/internal/remote"
)

// ChangePublisher is the part of the AMQP client the backend needs.
type ChangePublisher interface {
	PublishChange(ctx context.Context, ev *amqp.ChangeEvent) error
}

// PublishingBackend wraps a remote.Backend and announces every successful
// write as a change event. Publish failures are logged and never fail the
// write, which has already been committed.
type PublishingBackend struct {
	remote.Backend
	publisher ChangePublisher
	log       *slog.Logger
}

func NewPublishingBackend(backend remote.Backend, publisher ChangePublisher, logger *slog.Logger) *PublishingBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &PublishingBackend{
		Backend:   backend,
		publisher: publisher,
		log:       logger,
	}
}

func (b *PublishingBackend) InsertFamily(ctx context.Context, row remote.FamilyRow) error {
	if err := b.Backend.InsertFamily(ctx, row); err != nil {
		return err
	}
	b.publish(ctx, amqp.TableFamilies, amqp.ChangeInsert, row.ID)
	return nil
}

func (b *PublishingBackend) UpdateFamily(ctx context.Context, row remote.FamilyRow) error {
	if err := b.Backend.UpdateFamily(ctx, row); err != nil {
		return err
	}
	b.publish(ctx, amqp.TableFamilies, amqp.ChangeUpdate, row.ID)
	return nil
}

func (b *PublishingBackend) UpdateFamilyHistory(ctx context.Context, id string, history json.RawMessage) error {
	if err := b.Backend.UpdateFamilyHistory(ctx, id, history); err != nil {
		return err
	}
	b.publish(ctx, amqp.TableFamilies, amqp.ChangeUpdate, id)
	return nil
}

func (b *PublishingBackend) DeleteFamily(ctx context.Context, id string) error {
	if err := b.Backend.DeleteFamily(ctx, id); err != nil {
		return err
	}
	b.publish(ctx, amqp.TableFamilies, amqp.ChangeDelete, id)
	return nil
}

func (b *PublishingBackend) InsertTransaction(ctx context.Context, row remote.TransactionRow) error {
	if err := b.Backend.InsertTransaction(ctx, row); err != nil {
		return err
	}
	b.publish(ctx, amqp.TableFinancialRecords, amqp.ChangeInsert, row.ID)
	return nil
}

func (b *PublishingBackend) DeleteTransaction(ctx context.Context, id string) error {
	if err := b.Backend.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	b.publish(ctx, amqp.TableFinancialRecords, amqp.ChangeDelete, id)
	return nil
}

func (b *PublishingBackend) publish(ctx context.Context, table, op, id string) {
	if err := b.publisher.PublishChange(ctx, amqp.NewChangeEvent(table, op, id)); err != nil {
		b.log.WarnContext(ctx, "Failed to publish change event",
			"table", table,
			"op", op,
			"id", id,
			"error", err)
	}
}
