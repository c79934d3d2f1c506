package cache

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/umalmyha/customersync/internal/model"
	"github.com/umalmyha/customersync/internal/repository"
	"github.com/umalmyha/customersync/pkg/db/transactor"
)

type cachedCustomerRepository struct {
	repository.CustomerRepository
	cache CustomerCache
}

// NewCachedCustomerRepository wraps repository with read-through cache for lookups by external id.
// Any write evicts cached entry of the written customer before the write and once again after commit.
func NewCachedCustomerRepository(repo repository.CustomerRepository, cache CustomerCache) repository.CustomerRepository {
	return &cachedCustomerRepository{CustomerRepository: repo, cache: cache}
}

func (r *cachedCustomerRepository) FindByExternalID(ctx context.Context, externalID string) (*model.Customer, error) {
	c, err := r.cache.FindByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}

	if c != nil {
		return c, nil
	}

	c, err = r.CustomerRepository.FindByExternalID(ctx, externalID)
	if err != nil || c == nil {
		return c, err
	}

	if err := r.cache.Cache(ctx, c); err != nil {
		logrus.Warnf("failed to cache customer with external id %s - %v", externalID, err)
	}
	return c, nil
}

func (r *cachedCustomerRepository) CreateCustomerRecord(ctx context.Context, c *model.Customer) error {
	if err := r.evict(ctx, c); err != nil {
		return err
	}

	if err := r.CustomerRepository.CreateCustomerRecord(ctx, c); err != nil {
		return err
	}
	r.evictAfterCommit(ctx, c)
	return nil
}

func (r *cachedCustomerRepository) UpdateCustomerRecord(ctx context.Context, c *model.Customer) error {
	if err := r.evict(ctx, c); err != nil {
		return err
	}

	if err := r.CustomerRepository.UpdateCustomerRecord(ctx, c); err != nil {
		return err
	}
	r.evictAfterCommit(ctx, c)
	return nil
}

func (r *cachedCustomerRepository) evict(ctx context.Context, c *model.Customer) error {
	if c.ExternalID == nil {
		return nil
	}
	return r.cache.EvictByExternalID(ctx, *c.ExternalID)
}

// evictAfterCommit drops entries cached by concurrent readers while the write was not committed yet
func (r *cachedCustomerRepository) evictAfterCommit(ctx context.Context, c *model.Customer) {
	if c.ExternalID == nil {
		return
	}

	externalID := *c.ExternalID
	transactor.AfterCommit(ctx, func(ctx context.Context) {
		if err := r.cache.EvictByExternalID(ctx, externalID); err != nil {
			logrus.Warnf("failed to evict customer with external id %s after commit - %v", externalID, err)
		}
	})
}
