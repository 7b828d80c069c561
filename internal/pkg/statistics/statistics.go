package statistics

import (
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/soukly/soukly/app/models"
	"github.com/soukly/soukly/internal/pkg/cache"
	"github.com/soukly/soukly/internal/pkg/database"
)

const (
	CacheKeyListingsTotal = "statistics:listings:total"
	CacheKeyListingsDaily = "statistics:listings:daily:%s" // Format with date YYYY-MM-DD
	CacheKeyUsers         = "statistics:users:total"
	CacheExpiration       = 30 * time.Minute
)

// StatisticsData holds the aggregate numbers shown on the public landing endpoint
type StatisticsData struct {
	TodayListings int
	TotalUsers    int
	TotalListings int
}

var (
	lastCacheUpdate     time.Time
	cacheUpdateMutex    sync.Mutex
	cacheUpdateInterval = 5 * time.Minute
)

// ShouldUpdateCache reports whether the cached aggregates are stale
func ShouldUpdateCache() bool {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	return time.Since(lastCacheUpdate) > cacheUpdateInterval
}

// UpdateCacheIfNeeded refreshes the cached aggregates when the interval has passed
func UpdateCacheIfNeeded() {
	if ShouldUpdateCache() {
		cacheUpdateMutex.Lock()
		defer cacheUpdateMutex.Unlock()

		if err := UpdateStatisticsCache(); err != nil {
			log.Printf("Error updating statistics cache: %v", err)
		} else {
			lastCacheUpdate = time.Now()
		}
	}
}

// ResetCacheUpdateTimer forces the next UpdateCacheIfNeeded call to refresh
func ResetCacheUpdateTimer() {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	lastCacheUpdate = time.Time{}
}

// UpdateStatisticsCache recounts marketplace aggregates and stores them in the cache
func UpdateStatisticsCache() error {
	db := database.GetDB()

	var totalListings int64
	if err := db.Model(&models.Listing{}).Where("status = ?", models.ListingStatusActive).Count(&totalListings).Error; err != nil {
		log.Printf("Error counting active listings: %v", err)
		return err
	}

	var todayListings int64
	today := time.Now().Format("2006-01-02")
	todayStart, _ := time.Parse("2006-01-02", today)
	todayEnd := todayStart.Add(24 * time.Hour)

	if err := db.Model(&models.Listing{}).Where("created_at BETWEEN ? AND ?", todayStart, todayEnd).Count(&todayListings).Error; err != nil {
		log.Printf("Error counting today's listings: %v", err)
		return err
	}

	var totalUsers int64
	if err := db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		log.Printf("Error counting users: %v", err)
		return err
	}

	if err := cache.Set(CacheKeyListingsTotal, strconv.FormatInt(totalListings, 10), CacheExpiration); err != nil {
		return err
	}
	dailyKey := fmt.Sprintf(CacheKeyListingsDaily, today)
	if err := cache.Set(dailyKey, strconv.FormatInt(todayListings, 10), CacheExpiration); err != nil {
		return err
	}
	return cache.Set(CacheKeyUsers, strconv.FormatInt(totalUsers, 10), CacheExpiration)
}

// GetStatistics returns the cached aggregates, recounting on cache misses
func GetStatistics() StatisticsData {
	UpdateCacheIfNeeded()

	data := StatisticsData{}
	if v, err := cache.Get(CacheKeyListingsTotal); err == nil {
		data.TotalListings, _ = strconv.Atoi(v)
	}
	today := time.Now().Format("2006-01-02")
	if v, err := cache.Get(fmt.Sprintf(CacheKeyListingsDaily, today)); err == nil {
		data.TodayListings, _ = strconv.Atoi(v)
	}
	if v, err := cache.Get(CacheKeyUsers); err == nil {
		data.TotalUsers, _ = strconv.Atoi(v)
	}
	return data
}
