package handler

import (
	"encoding/json"
	"net/http"

	"github.com/katsura919/enquiro-backend-go/internal/domain"
	"github.com/katsura919/enquiro-backend-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Business & knowledge dashboard endpoints (authenticated)
// ============================================================

// POST /v1/businesses
func createBusinessHandler(svc *service.BusinessService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/businesses")
		defer span.End()

		var b domain.Business
		if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		created, err := svc.Create(ctx, &b)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

// GET /v1/businesses
func listBusinessesHandler(svc *service.BusinessService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/businesses")
		defer span.End()

		page, pageSize := parsePagination(r)
		businesses, err := svc.List(ctx, page, pageSize)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"businesses": businesses,
			"page":       page,
			"pageSize":   pageSize,
		})
	}
}

// GET /v1/businesses/{businessId}
func getBusinessHandler(svc *service.BusinessService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/businesses/{businessId}")
		defer span.End()

		b, err := svc.Get(ctx, chi.URLParam(r, "businessId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

// PUT /v1/businesses/{businessId}
func updateBusinessHandler(svc *service.BusinessService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/businesses/{businessId}")
		defer span.End()

		var b domain.Business
		if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		b.ID = chi.URLParam(r, "businessId")

		updated, err := svc.Update(ctx, &b)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

// DELETE /v1/businesses/{businessId}
func deleteBusinessHandler(svc *service.BusinessService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/businesses/{businessId}")
		defer span.End()

		if err := svc.Delete(ctx, chi.URLParam(r, "businessId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /v1/businesses/{businessId}/qr-settings
func getQRSettingsHandler(svc *service.BusinessService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/businesses/{businessId}/qr-settings")
		defer span.End()

		settings, err := svc.GetQRSettings(ctx, chi.URLParam(r, "businessId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, settings)
	}
}

// PUT /v1/businesses/{businessId}/qr-settings
func upsertQRSettingsHandler(svc *service.BusinessService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/businesses/{businessId}/qr-settings")
		defer span.End()

		var settings domain.QRSettings
		if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		settings.BusinessID = chi.URLParam(r, "businessId")

		updated, err := svc.UpsertQRSettings(ctx, &settings)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

// ============================================================
// Knowledge base: products, services, policies, FAQs
// ============================================================

func createProductHandler(svc *service.BusinessService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/businesses/{businessId}/products")
		defer span.End()

		var p domain.Product
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		p.BusinessID = chi.URLParam(r, "businessId")

		created, err := svc.CreateProduct(ctx, &p)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func listProductsHandler(svc *service.BusinessService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/businesses/{businessId}/products")
		defer span.End()

		products, err := svc.ListProducts(ctx, chi.URLParam(r, "businessId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"products": products})
	}
}

func updateProductHandler(svc *service.BusinessService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/businesses/{businessId}/products/{productId}")
		defer span.End()

		var p domain.Product
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		p.ID = chi.URLParam(r, "productId")
		p.BusinessID = chi.URLParam(r, "businessId")

		updated, err := svc.UpdateProduct(ctx, &p)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func deleteProductHandler(svc *service.BusinessService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/businesses/{businessId}/products/{productId}")
		defer span.End()

		if err := svc.DeleteProduct(ctx, chi.URLParam(r, "businessId"), chi.URLParam(r, "productId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func createServiceHandler(svc *service.BusinessService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/businesses/{businessId}/services")
		defer span.End()

		var s domain.ServiceItem
		if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		s.BusinessID = chi.URLParam(r, "businessId")

		created, err := svc.CreateService(ctx, &s)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func listServicesHandler(svc *service.BusinessService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/businesses/{businessId}/services")
		defer span.End()

		services, err := svc.ListServices(ctx, chi.URLParam(r, "businessId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"services": services})
	}
}

func updateServiceHandler(svc *service.BusinessService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/businesses/{businessId}/services/{serviceId}")
		defer span.End()

		var s domain.ServiceItem
		if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		s.ID = chi.URLParam(r, "serviceId")
		s.BusinessID = chi.URLParam(r, "businessId")

		updated, err := svc.UpdateService(ctx, &s)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func deleteServiceHandler(svc *service.BusinessService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/businesses/{businessId}/services/{serviceId}")
		defer span.End()

		if err := svc.DeleteService(ctx, chi.URLParam(r, "businessId"), chi.URLParam(r, "serviceId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func createPolicyHandler(svc *service.BusinessService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/businesses/{businessId}/policies")
		defer span.End()

		var p domain.Policy
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		p.BusinessID = chi.URLParam(r, "businessId")

		created, err := svc.CreatePolicy(ctx, &p)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func listPoliciesHandler(svc *service.BusinessService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/businesses/{businessId}/policies")
		defer span.End()

		policies, err := svc.ListPolicies(ctx, chi.URLParam(r, "businessId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"policies": policies})
	}
}

func updatePolicyHandler(svc *service.BusinessService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/businesses/{businessId}/policies/{policyId}")
		defer span.End()

		var p domain.Policy
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		p.ID = chi.URLParam(r, "policyId")
		p.BusinessID = chi.URLParam(r, "businessId")

		updated, err := svc.UpdatePolicy(ctx, &p)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func deletePolicyHandler(svc *service.BusinessService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/businesses/{businessId}/policies/{policyId}")
		defer span.End()

		if err := svc.DeletePolicy(ctx, chi.URLParam(r, "businessId"), chi.URLParam(r, "policyId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func createFAQHandler(svc *service.BusinessService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/businesses/{businessId}/faqs")
		defer span.End()

		var f domain.FAQ
		if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		f.BusinessID = chi.URLParam(r, "businessId")

		created, err := svc.CreateFAQ(ctx, &f)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func listFAQsHandler(svc *service.BusinessService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/businesses/{businessId}/faqs")
		defer span.End()

		faqs, err := svc.ListFAQs(ctx, chi.URLParam(r, "businessId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"faqs": faqs})
	}
}

func updateFAQHandler(svc *service.BusinessService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/businesses/{businessId}/faqs/{faqId}")
		defer span.End()

		var f domain.FAQ
		if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		f.ID = chi.URLParam(r, "faqId")
		f.BusinessID = chi.URLParam(r, "businessId")

		updated, err := svc.UpdateFAQ(ctx, &f)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func deleteFAQHandler(svc *service.BusinessService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/businesses/{businessId}/faqs/{faqId}")
		defer span.End()

		if err := svc.DeleteFAQ(ctx, chi.URLParam(r, "businessId"), chi.URLParam(r, "faqId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
