package services

import (
	"context"
	"testing"

	"github.com/BradenHooton/cis-membership/internal/models"
	"github.com/BradenHooton/cis-membership/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewsletterService_Subscribe(t *testing.T) {
	notifier := NewMockNotifier()
	svc := NewNewsletterService(repositories.NewMemoryNewsletterRepository(), notifier, testLogger())
	ctx := context.Background()

	sub, err := svc.Subscribe(ctx, &models.NewsletterSubscription{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "a@x.com",
		Interests: []string{"ai"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.FrequencyWeekly, sub.Frequency)
	assert.True(t, sub.IsActive)
	require.Len(t, notifier.Newsletters, 1)

	_, err = svc.Subscribe(ctx, &models.NewsletterSubscription{FirstName: "Ada", LastName: "L", Email: "a@x.com"})
	assert.ErrorIs(t, err, models.ErrAlreadySubscribed)
}

func TestNewsletterService_Unsubscribe(t *testing.T) {
	repo := repositories.NewMemoryNewsletterRepository()
	svc := NewNewsletterService(repo, NewMockNotifier(), testLogger())
	ctx := context.Background()

	assert.ErrorIs(t, svc.Unsubscribe(ctx, "a@x.com"), models.ErrSubscriptionNotFound)

	_, err := svc.Subscribe(ctx, &models.NewsletterSubscription{FirstName: "A", LastName: "B", Email: "a@x.com", Frequency: models.FrequencyDaily})
	require.NoError(t, err)

	require.NoError(t, svc.Unsubscribe(ctx, "a@x.com"))
	require.NoError(t, svc.Unsubscribe(ctx, "a@x.com"))

	sub, err := repo.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, sub.IsActive)
	assert.Equal(t, models.FrequencyDaily, sub.Frequency)

	// an inactive record still blocks resubscription
	_, err = svc.Subscribe(ctx, &models.NewsletterSubscription{FirstName: "A", LastName: "B", Email: "a@x.com"})
	assert.ErrorIs(t, err, models.ErrAlreadySubscribed)
}
