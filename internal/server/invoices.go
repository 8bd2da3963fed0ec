package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	entrydomain "github.com/siel/acumulus-sync/internal/entry/domain"
	"github.com/siel/acumulus-sync/internal/source"
)

// entryView is the external shape of an entry on the status endpoints.
type entryView struct {
	SourceType string         `json:"source_type"`
	SourceID   int64          `json:"source_id"`
	ConceptID  *int64         `json:"concept_id,omitempty"`
	EntryID    *int64         `json:"entry_id,omitempty"`
	HasToken   bool           `json:"has_token"`
	Concept    bool           `json:"concept"`
	Status     string         `json:"status"`
	Messages   map[string]any `json:"messages,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func newEntryView(e *entrydomain.AcumulusEntry) entryView {
	return entryView{
		SourceType: e.SourceType,
		SourceID:   e.SourceID,
		ConceptID:  e.ConceptID,
		EntryID:    e.EntryID,
		HasToken:   e.Token != nil,
		Concept:    e.IsConcept(),
		Status:     e.LastStatus,
		Messages:   e.LastMessages,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

func sourceParams(c *gin.Context) (source.Type, int64, bool) {
	typ, ok := source.ParseType(c.Param("type"))
	if !ok {
		return "", 0, false
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return "", 0, false
	}
	return typ, id, true
}

// getInvoiceStatus returns the entry for a source, the backing data of
// the shop-side status overview box.
func (s *Server) getInvoiceStatus(c *gin.Context) {
	typ, id, ok := sourceParams(c)
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	entry, err := s.entrySvc.GetBySource(c.Request.Context(), typ, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if entry == nil {
		AbortWithError(c, entrydomain.ErrEntryNotFound)
		return
	}
	c.JSON(http.StatusOK, newEntryView(entry))
}

// sendInvoice triggers a manual (re)send. With force=true an accepted
// entry is sent again and updated in place.
func (s *Server) sendInvoice(c *gin.Context) {
	typ, id, ok := sourceParams(c)
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	forced, _ := strconv.ParseBool(c.DefaultQuery("force", "false"))

	result, err := s.invoiceSvc.Send(c.Request.Context(), typ, id, forced)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   result.Status.String(),
		"messages": result.Messages,
	})
}

func (s *Server) deleteInvoiceEntry(c *gin.Context) {
	typ, id, ok := sourceParams(c)
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.entrySvc.DeleteForSource(c.Request.Context(), typ, id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) getInvoicePDF(c *gin.Context) {
	typ, id, ok := sourceParams(c)
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	uri, err := s.invoiceSvc.InvoicePDFURI(c.Request.Context(), typ, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Redirect(http.StatusFound, uri)
}

func (s *Server) getPackingSlipPDF(c *gin.Context) {
	typ, id, ok := sourceParams(c)
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	uri, err := s.invoiceSvc.PackingSlipPDFURI(c.Request.Context(), typ, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Redirect(http.StatusFound, uri)
}
