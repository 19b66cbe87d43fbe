package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gabrielfst30/descentralized-stablecoin-engine/oracle"
)

type accountInformationResponse struct {
	Address            string `json:"address"`
	Debt               string `json:"debt"`
	CollateralUsdValue string `json:"collateralUsdValue"`
}

func (s *Server) handleAccountInformation(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress(chi.URLParam(r, "addr"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed account address")
		return
	}
	debt, collateralUsd, err := s.engine.GetAccountInformation(addr)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, accountInformationResponse{
		Address:            addr.String(),
		Debt:               debt.String(),
		CollateralUsdValue: collateralUsd.String(),
	})
}

func (s *Server) handleHealthFactor(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress(chi.URLParam(r, "addr"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed account address")
		return
	}
	hf, err := s.engine.GetHealthFactor(addr)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"address":      addr.String(),
		"healthFactor": hf.String(),
	})
}

func (s *Server) handleCollateralValue(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress(chi.URLParam(r, "addr"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed account address")
		return
	}
	value, err := s.engine.GetAccountCollateralValue(addr)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"address":  addr.String(),
		"usdValue": value.String(),
	})
}

func (s *Server) handleCollateralBalance(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress(chi.URLParam(r, "addr"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed account address")
		return
	}
	asset := chi.URLParam(r, "asset")
	balance, err := s.engine.GetCollateralBalance(addr, asset)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"address": addr.String(),
		"asset":   oracle.NormalizeSymbol(asset),
		"balance": balance.String(),
	})
}

func (s *Server) handleUsdValue(w http.ResponseWriter, r *http.Request) {
	amount, ok := parseAmount(r.URL.Query().Get("amount"))
	if !ok {
		writeError(w, http.StatusBadRequest, "amount query parameter required")
		return
	}
	asset := chi.URLParam(r, "asset")
	value, err := s.engine.GetUsdValue(asset, amount)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"asset":    oracle.NormalizeSymbol(asset),
		"amount":   amount.String(),
		"usdValue": value.String(),
	})
}

func (s *Server) handleTokenAmount(w http.ResponseWriter, r *http.Request) {
	usd, ok := parseAmount(r.URL.Query().Get("usd"))
	if !ok {
		writeError(w, http.StatusBadRequest, "usd query parameter required")
		return
	}
	asset := chi.URLParam(r, "asset")
	amount, err := s.engine.GetTokenAmountFromUsd(asset, usd)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"asset":       oracle.NormalizeSymbol(asset),
		"usd":         usd.String(),
		"tokenAmount": amount.String(),
	})
}

type mutationRequest struct {
	Account     string `json:"account"`
	Asset       string `json:"asset"`
	Amount      string `json:"amount"`
	MintAmount  string `json:"mintAmount"`
	BurnAmount  string `json:"burnAmount"`
	Liquidator  string `json:"liquidator"`
	DebtToCover string `json:"debtToCover"`
}

func decodeMutation(w http.ResponseWriter, r *http.Request) (mutationRequest, bool) {
	var req mutationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return mutationRequest{}, false
	}
	return req, true
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	req, ok := decodeMutation(w, r)
	if !ok {
		return
	}
	addr, err := parseAddress(req.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed account address")
		return
	}
	amount, ok := parseAmount(req.Amount)
	if !ok {
		writeError(w, http.StatusBadRequest, "amount required")
		return
	}
	s.finish(w, "deposit", started, s.engine.DepositCollateral(addr, req.Asset, amount))
}

func (s *Server) handleMint(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	req, ok := decodeMutation(w, r)
	if !ok {
		return
	}
	addr, err := parseAddress(req.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed account address")
		return
	}
	amount, ok := parseAmount(req.Amount)
	if !ok {
		writeError(w, http.StatusBadRequest, "amount required")
		return
	}
	s.finish(w, "mint", started, s.engine.MintDsc(addr, amount))
}

func (s *Server) handleDepositAndMint(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	req, ok := decodeMutation(w, r)
	if !ok {
		return
	}
	addr, err := parseAddress(req.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed account address")
		return
	}
	amount, ok := parseAmount(req.Amount)
	if !ok {
		writeError(w, http.StatusBadRequest, "amount required")
		return
	}
	mintAmount, ok := parseAmount(req.MintAmount)
	if !ok {
		writeError(w, http.StatusBadRequest, "mintAmount required")
		return
	}
	s.finish(w, "deposit_and_mint", started,
		s.engine.DepositCollateralAndMintDsc(addr, req.Asset, amount, mintAmount))
}

func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	req, ok := decodeMutation(w, r)
	if !ok {
		return
	}
	addr, err := parseAddress(req.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed account address")
		return
	}
	amount, ok := parseAmount(req.Amount)
	if !ok {
		writeError(w, http.StatusBadRequest, "amount required")
		return
	}
	s.finish(w, "redeem", started, s.engine.RedeemCollateral(addr, req.Asset, amount))
}

func (s *Server) handleBurn(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	req, ok := decodeMutation(w, r)
	if !ok {
		return
	}
	addr, err := parseAddress(req.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed account address")
		return
	}
	amount, ok := parseAmount(req.Amount)
	if !ok {
		writeError(w, http.StatusBadRequest, "amount required")
		return
	}
	s.finish(w, "burn", started, s.engine.BurnDsc(addr, amount))
}

func (s *Server) handleRedeemForDsc(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	req, ok := decodeMutation(w, r)
	if !ok {
		return
	}
	addr, err := parseAddress(req.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed account address")
		return
	}
	amount, ok := parseAmount(req.Amount)
	if !ok {
		writeError(w, http.StatusBadRequest, "amount required")
		return
	}
	burnAmount, ok := parseAmount(req.BurnAmount)
	if !ok {
		writeError(w, http.StatusBadRequest, "burnAmount required")
		return
	}
	s.finish(w, "redeem_for_dsc", started,
		s.engine.RedeemCollateralForDsc(addr, req.Asset, amount, burnAmount))
}

func (s *Server) handleLiquidate(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	req, ok := decodeMutation(w, r)
	if !ok {
		return
	}
	liquidator, err := parseAddress(req.Liquidator)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed liquidator address")
		return
	}
	victim, err := parseAddress(req.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed account address")
		return
	}
	debtToCover, ok := parseAmount(req.DebtToCover)
	if !ok {
		writeError(w, http.StatusBadRequest, "debtToCover required")
		return
	}
	s.finish(w, "liquidate", started, s.engine.Liquidate(liquidator, req.Asset, victim, debtToCover))
}

type priceRequest struct {
	Feed  string `json:"feed"`
	Price string `json:"price"`
}

func (s *Server) handleSetPrice(w http.ResponseWriter, r *http.Request) {
	if s.feed == nil {
		writeError(w, http.StatusNotFound, "manual price feed not enabled")
		return
	}
	var req priceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := s.feed.SetDecimal(req.Feed, req.Price, time.Now()); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"feed": oracle.NormalizeSymbol(req.Feed), "status": "ok"})
}
