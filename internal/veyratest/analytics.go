package veyratest

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

func (s *Server) analytics(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var recent, weekly int
	methods := map[string]int{}
	daily := map[string]int{}
	for _, v := range s.verifications {
		age := now.Sub(v.createdAt)
		if age <= 24*time.Hour {
			recent++
		}
		if age <= 7*24*time.Hour {
			weekly++
			daily[v.createdAt.UTC().Format(time.DateOnly)]++
		}
		methods[v.method]++
	}

	methodRows := make([]gin.H, 0, len(methods))
	for m, n := range methods {
		methodRows = append(methodRows, gin.H{"verification_method": m, "count": n})
	}
	sort.Slice(methodRows, func(i, j int) bool {
		return methodRows[i]["verification_method"].(string) < methodRows[j]["verification_method"].(string)
	})

	days := make([]string, 0, len(daily))
	for d := range daily {
		days = append(days, d)
	}
	sort.Strings(days)
	dailyRows := make([]gin.H, 0, len(days))
	for _, d := range days {
		dailyRows = append(dailyRows, gin.H{"date": d, "count": daily[d]})
	}

	c.JSON(http.StatusOK, gin.H{
		"total_verifications":  len(s.verifications),
		"recent_verifications": recent,
		"weekly_verifications": weekly,
		"total_users":          len(s.users),
		"verification_methods": methodRows,
		"daily_verifications":  dailyRows,
	})
}

func (s *Server) activity(c *gin.Context) {
	page, limit := pagination(c)

	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]activityRow, len(s.activities))
	for i, a := range s.activities {
		rows[len(rows)-1-i] = a
	}

	out := make([]gin.H, 0, limit)
	for _, a := range paginate(rows, page, limit) {
		username := ""
		if u, ok := s.users[a.userID]; ok {
			username = u.username
		}
		out = append(out, gin.H{
			"id":            a.id,
			"user_id":       a.userID,
			"activity_type": a.kind,
			"activity_data": a.data,
			"created_at":    formatTime(a.createdAt),
			"username":      username,
		})
	}
	c.JSON(http.StatusOK, gin.H{"activities": out, "page": page, "limit": limit})
}
