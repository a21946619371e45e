package server

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"StockDash/internal/account"
	"StockDash/internal/translate"
)

// settingsLabels are the static strings of the settings page that follow
// the language selector.
var settingsLabels = []string{
	"Settings",
	"User Details",
	"Name",
	"Date of Birth",
	"Gender",
	"Mobile Number",
	"Marital Status",
	"Email",
	"Save",
	"Change Password",
	"Current Password",
	"New Password",
	"Confirm Password",
	"Report a Problem",
	"Category",
	"Description",
	"Attachment",
	"Submit",
	"Help and Support",
	"Subject",
	"Message",
	"Language",
}

const maxParallelTranslations = 8

// translateAll translates texts concurrently, keeping the original wherever
// a lookup fails.
func (s *Server) translateAll(ctx context.Context, lang string, texts []string) []string {
	out := make([]string, len(texts))
	copy(out, texts)
	if s.deps.Translate == nil || lang == "" || lang == "en" {
		return out
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelTranslations)
	for i, text := range texts {
		g.Go(func() error {
			t, err := s.deps.Translate.Translate(ctx, text, lang)
			if err != nil {
				log.Printf("[WARN] translate %q to %s: %v", text, lang, err)
				return nil
			}
			out[i] = t
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// settingsData builds the page model shared by the settings form handlers.
func (s *Server) settingsData(c *gin.Context) gin.H {
	lang := c.DefaultQuery("lang", "en")
	if !translate.Supported(lang) {
		lang = "en"
	}
	translated := s.translateAll(c.Request.Context(), lang, settingsLabels)
	labels := make(map[string]string, len(settingsLabels))
	for i, l := range settingsLabels {
		labels[l] = translated[i]
	}
	return gin.H{
		"Lang":            lang,
		"Languages":       translate.Languages,
		"L":               labels,
		"Genders":         account.Genders,
		"MaritalStatuses": account.MaritalStatuses,
		"Categories":      account.ReportCategories,
		"Section":         "",
	}
}

func (s *Server) settingsPage(c *gin.Context) {
	data := s.settingsData(c)
	if v := c.Query("saved"); v != "" {
		data["Saved"] = v
	}
	s.render(c, http.StatusOK, "settings.html", data)
}

// settingsDone redirects back to the page so a refresh does not resubmit.
func settingsDone(c *gin.Context, what string) {
	c.Redirect(http.StatusSeeOther, "/settings?saved="+what)
}

func (s *Server) settingsFailed(c *gin.Context, section string, err error) {
	data := s.settingsData(c)
	data["Section"] = section
	s.formError(c, "settings.html", err, data)
}

func (s *Server) saveProfile(c *gin.Context) {
	u, _ := currentUser(c)
	in := account.ProfileInput{
		Name:          c.PostForm("name"),
		DateOfBirth:   c.PostForm("date_of_birth"),
		Gender:        c.PostForm("gender"),
		Mobile:        c.PostForm("mobile"),
		MaritalStatus: c.PostForm("marital_status"),
		Email:         c.PostForm("email"),
	}
	if _, err := s.deps.Account.SaveProfile(c.Request.Context(), in, u.Email); err != nil {
		s.settingsFailed(c, "profile", err)
		return
	}
	settingsDone(c, "profile")
}

func (s *Server) changePassword(c *gin.Context) {
	u, _ := currentUser(c)
	err := s.deps.Auth.ChangePassword(c.Request.Context(), u.Email,
		c.PostForm("current"), c.PostForm("password"), c.PostForm("confirm"))
	if err != nil {
		s.settingsFailed(c, "password", err)
		return
	}
	settingsDone(c, "password")
}

func (s *Server) submitReport(c *gin.Context) {
	u, _ := currentUser(c)
	in := account.ReportInput{
		Category:    c.PostForm("category"),
		Description: c.PostForm("description"),
	}
	if fh, err := c.FormFile("attachment"); err == nil {
		f, err := fh.Open()
		if err != nil {
			s.settingsFailed(c, "report", err)
			return
		}
		defer f.Close()
		in.AttachmentName = fh.Filename
		in.Attachment = f
	}
	if _, err := s.deps.Account.SubmitReport(c.Request.Context(), in, u.Email); err != nil {
		s.settingsFailed(c, "report", err)
		return
	}
	settingsDone(c, "report")
}

func (s *Server) submitSupport(c *gin.Context) {
	in := account.SupportInput{
		Name:    c.PostForm("name"),
		Email:   c.PostForm("email"),
		Subject: c.PostForm("subject"),
		Message: c.PostForm("message"),
	}
	if _, err := s.deps.Account.SubmitSupport(c.Request.Context(), in); err != nil {
		s.settingsFailed(c, "support", err)
		return
	}
	settingsDone(c, "support")
}
