package service

import (
	"artcritic/internal/core/domain"
	"artcritic/internal/core/port"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type Limiter interface {
	// TryAdd reserves one submission for chatID, or tells the chat why not.
	TryAdd(ctx context.Context, chatID int64) bool
	// Refund gives back a reservation that did not lead to a submission.
	Refund(chatID int64)
	Used(chatID int64) int
}

// Quota counts submissions per chat and resets every midnight. A dailyLimit of
// zero disables the check.
type Quota struct {
	chats      map[int64]int
	dailyLimit int
	mutex      *sync.Mutex
	sender     port.TextSender
}

func NewQuota(ctx context.Context, sender port.TextSender, dailyLimit int) *Quota {
	q := &Quota{
		chats:      make(map[int64]int),
		mutex:      &sync.Mutex{},
		sender:     sender,
		dailyLimit: dailyLimit,
	}

	if dailyLimit > 0 {
		go q.ResetDailyLimit(ctx)
	}

	return q
}

func (q *Quota) Used(chatID int64) int {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	return q.chats[chatID]
}

const overLimit = "You have used all %d critiques for today. Limit will reset in %s."

func (q *Quota) TryAdd(ctx context.Context, chatID int64) bool {
	q.mutex.Lock()
	if q.dailyLimit <= 0 || q.chats[chatID] < q.dailyLimit {
		q.chats[chatID]++
		q.mutex.Unlock()
		return true
	}
	q.mutex.Unlock()

	_, err := q.sender.SendMessageReply(ctx,
		&domain.Message{ChatID: chatID},
		fmt.Sprintf(overLimit, q.dailyLimit, time.Until(getNextResetTime()).Truncate(time.Second)))
	if err != nil {
		log.Warn().Err(err).Msg("failed to send daily limit exceeded warning")
	}

	return false
}

func (q *Quota) Refund(chatID int64) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if q.chats[chatID] > 0 {
		q.chats[chatID]--
	}
}

func (q *Quota) ResetDailyLimit(ctx context.Context) {
	reset := getNextResetTime()

	for {
		log.Debug().Time("reset", reset).Msg("running reset timer")
		select {
		case <-time.After(time.Until(reset)):
			log.Debug().Msg("resetting daily limit")
			q.mutex.Lock()
			q.chats = make(map[int64]int)
			q.mutex.Unlock()
			time.Sleep(time.Second)
			reset = getNextResetTime()
		case <-ctx.Done():
			log.Debug().Msg("stopping daily limit reset")
			return
		}
	}
}

func getNextResetTime() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
}
