package veyratest

import (
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/veyra/internal/client/models"
	"github.com/gin-gonic/gin"
)

func renderVerification(v *verificationRow) gin.H {
	out := gin.H{
		"id":                  v.id,
		"discord_id":          v.discordID,
		"ckey":                v.ckey,
		"verified_flags":      maps.Clone(v.flags),
		"verification_method": v.method,
		"verified_by":         v.verifiedBy,
		"created_at":          formatTime(v.createdAt),
		"updated_at":          nil,
	}
	if v.updatedAt != nil {
		out["updated_at"] = formatTime(*v.updatedAt)
	}
	return out
}

func renderVerifications(rows []*verificationRow) []gin.H {
	out := make([]gin.H, 0, len(rows))
	for _, v := range rows {
		out = append(out, renderVerification(v))
	}
	return out
}

// findVerification must be called with s.mu held. It reads the discord_id or
// ckey route parameter.
func (s *Server) findVerification(c *gin.Context) *verificationRow {
	if ckey := c.Param("ckey"); ckey != "" {
		return s.byCkey(ckey)
	}
	return s.verifications[c.Param("discord_id")]
}

// byCkey must be called with s.mu held.
func (s *Server) byCkey(ckey string) *verificationRow {
	for _, v := range s.verifications {
		if strings.EqualFold(v.ckey, ckey) {
			return v
		}
	}
	return nil
}

// sortedVerifications must be called with s.mu held. Newest first.
func (s *Server) sortedVerifications() []*verificationRow {
	out := make([]*verificationRow, 0, len(s.verifications))
	for _, v := range s.verifications {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id > out[j].id })
	return out
}

func (s *Server) getVerification(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.findVerification(c)
	if v == nil {
		errorJSON(c, http.StatusNotFound, "Verification not found")
		return
	}
	c.JSON(http.StatusOK, renderVerification(v))
}

func (s *Server) listVerifications(c *gin.Context) {
	page, limit := pagination(c)
	search := strings.ToLower(c.Query("search"))

	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*verificationRow
	for _, v := range s.sortedVerifications() {
		if search == "" ||
			strings.Contains(strings.ToLower(v.discordID), search) ||
			strings.Contains(strings.ToLower(v.ckey), search) {
			matched = append(matched, v)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"verifications": renderVerifications(paginate(matched, page, limit)),
		"page":          page,
		"limit":         limit,
	})
}

func (s *Server) bulkByDiscord(c *gin.Context) {
	var req models.BulkByDiscordRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.DiscordIDs) == 0 {
		errorJSON(c, http.StatusBadRequest, "discord_ids must be a non-empty array")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var found []*verificationRow
	for _, id := range req.DiscordIDs {
		if v, ok := s.verifications[id]; ok {
			found = append(found, v)
		}
	}
	c.JSON(http.StatusOK, gin.H{"verifications": renderVerifications(found)})
}

func (s *Server) bulkByCkey(c *gin.Context) {
	var req models.BulkByCkeyRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Ckeys) == 0 {
		errorJSON(c, http.StatusBadRequest, "ckeys must be a non-empty array")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var found []*verificationRow
	for _, ckey := range req.Ckeys {
		if v := s.byCkey(ckey); v != nil {
			found = append(found, v)
		}
	}
	c.JSON(http.StatusOK, gin.H{"verifications": renderVerifications(found)})
}

func (s *Server) upsertVerification(c *gin.Context) {
	var req models.CreateVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.DiscordID == "" || req.Ckey == "" {
		errorJSON(c, http.StatusBadRequest, "discord_id and ckey are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if other := s.byCkey(req.Ckey); other != nil && other.discordID != req.DiscordID {
		errorJSON(c, http.StatusConflict, "ckey is already linked to another account")
		return
	}

	now := s.now()
	claims := claimsOf(c)
	v, exists := s.verifications[req.DiscordID]
	if exists {
		v.ckey = req.Ckey
		maps.Copy(v.flags, req.VerifiedFlags)
		if req.VerificationMethod != "" {
			v.method = req.VerificationMethod
		}
		v.updatedAt = &now
	} else {
		s.nextVerifyID++
		v = &verificationRow{
			id:         s.nextVerifyID,
			discordID:  req.DiscordID,
			ckey:       req.Ckey,
			flags:      maps.Clone(map[string]any(req.VerifiedFlags)),
			method:     req.VerificationMethod,
			verifiedBy: claims.Username,
			createdAt:  now,
		}
		if v.flags == nil {
			v.flags = map[string]any{}
		}
		if v.method == "" {
			v.method = "manual"
		}
		s.verifications[v.discordID] = v
	}

	data := fmt.Sprintf(`{"discord_id":%q,"ckey":%q}`, v.discordID, v.ckey)
	s.logActivity(claims.UserID, "verification_upserted", &data)
	c.JSON(http.StatusOK, renderVerification(v))
}

// updateVerification applies the recognised fields of the body. Unknown
// fields are ignored; a body with none of them is rejected with 400.
func (s *Server) updateVerification(c *gin.Context) {
	var body map[string]json.RawMessage
	if err := c.ShouldBindJSON(&body); err != nil {
		errorJSON(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.findVerification(c)
	if v == nil {
		errorJSON(c, http.StatusNotFound, "Verification not found")
		return
	}

	var (
		discordID, ckey, method *string
		flags                   models.Flags
	)
	for field, dst := range map[string]any{
		"discord_id":          &discordID,
		"ckey":                &ckey,
		"verification_method": &method,
		"verified_flags":      &flags,
	} {
		raw, ok := body[field]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			errorJSON(c, http.StatusBadRequest, "Invalid value for "+field)
			return
		}
	}
	if discordID == nil && ckey == nil && method == nil && flags == nil {
		errorJSON(c, http.StatusBadRequest, "No valid fields to update")
		return
	}

	if ckey != nil {
		if other := s.byCkey(*ckey); other != nil && other != v {
			errorJSON(c, http.StatusConflict, "ckey is already linked to another account")
			return
		}
		v.ckey = *ckey
	}
	if discordID != nil && *discordID != v.discordID {
		if _, taken := s.verifications[*discordID]; taken {
			errorJSON(c, http.StatusConflict, "discord_id is already verified")
			return
		}
		delete(s.verifications, v.discordID)
		v.discordID = *discordID
		s.verifications[v.discordID] = v
	}
	if method != nil {
		v.method = *method
	}
	maps.Copy(v.flags, flags)

	now := s.now()
	v.updatedAt = &now
	data := fmt.Sprintf(`{"discord_id":%q}`, v.discordID)
	s.logActivity(claimsOf(c).UserID, "verification_updated", &data)
	c.JSON(http.StatusOK, gin.H{"message": "Verification updated successfully"})
}

func (s *Server) deleteVerification(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.findVerification(c)
	if v == nil {
		errorJSON(c, http.StatusNotFound, "Verification not found")
		return
	}
	delete(s.verifications, v.discordID)
	data := fmt.Sprintf(`{"discord_id":%q}`, v.discordID)
	s.logActivity(claimsOf(c).UserID, "verification_deleted", &data)
	c.JSON(http.StatusOK, gin.H{"message": "Verification deleted successfully"})
}

func pagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	return page, limit
}

func paginate[T any](rows []T, page, limit int) []T {
	start := (page - 1) * limit
	if start >= len(rows) {
		return nil
	}
	end := min(start+limit, len(rows))
	return rows[start:end]
}
