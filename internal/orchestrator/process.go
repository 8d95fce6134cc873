package orchestrator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/firm-intel-crawler/internal/crawler"
)

// Target statuses and the fixed failure reasons.
const (
	StatusProcessed = "processed"
	StatusFailed    = "failed"

	ReasonNoContent        = "no_content"
	ReasonExtractionFailed = "extraction_failed"
)

// process runs the per-target pipeline. It never panics and never returns an
// error; every failure becomes a reason on the result.
func (o *Orchestrator) process(ctx context.Context, target string, idx, total int) (result TargetResult) {
	result = TargetResult{Target: target, Index: idx, Total: total}
	logger := o.deps.Logger.With(
		zap.String("target", target),
		zap.Int("idx", idx),
		zap.Int("total", total),
	)
	defer func() {
		if r := recover(); r != nil {
			result.Status = StatusFailed
			result.Reason = fmt.Sprint(r)
			logger.Error("target processing panicked", zap.String("reason", result.Reason))
		}
	}()

	logger.Info("processing target")
	unit := o.deps.Builder.Build(ctx, target)
	if unit.Empty() {
		logger.Warn("skipping target, no content found", zap.String("reason", ReasonNoContent))
		return fail(result, ReasonNoContent)
	}
	text := unit.Text()

	extracted := o.deps.Extractor.Extract(ctx, text)
	record, ok := extracted.Value()
	if !ok {
		logger.Error("failed to extract structured data",
			zap.String("reason", ReasonExtractionFailed),
			zap.Stringer("result", extracted.Kind()),
			zap.String("detail", extracted.Reason()))
		return fail(result, ReasonExtractionFailed)
	}
	if record.FirmName == "" {
		record.FirmName = crawler.CompanyNameFromURL(target)
	}
	if record.SourceURL == "" {
		record.SourceURL = target
	}
	result.FirmName = record.FirmName

	if err := o.deps.Records.StoreFirm(ctx, record); err != nil {
		logger.Error("failed to store firm", zap.Error(err))
		return fail(result, err.Error())
	}
	logger.Info("firm stored",
		zap.String("firm", record.FirmName),
		zap.Strings("keywords", record.HiringKeywords))

	o.storeInsights(ctx, logger, record.FirmName, unit, text)

	result.Status = StatusProcessed
	return result
}

// storeInsights is best effort: a failure here never fails the target.
func (o *Orchestrator) storeInsights(
	ctx context.Context,
	logger *zap.Logger,
	firmName string,
	unit crawler.CrawlUnit,
	text string,
) {
	if o.deps.Insights == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("career insight extraction panicked", zap.String("firm", firmName), zap.Any("panic", r))
		}
	}()

	res := o.deps.Insights.ExtractInsights(ctx, unit.Sections, text)
	insight, ok := res.Value()
	if !ok {
		if res.Kind() == crawler.ResultFailed {
			logger.Warn("error extracting career insights", zap.String("firm", firmName), zap.String("detail", res.Reason()))
		} else {
			logger.Info("no dedicated career insights detected", zap.String("firm", firmName))
		}
		return
	}
	if err := o.deps.Records.StoreInsights(ctx, firmName, insight); err != nil {
		logger.Warn("failed to store career insights", zap.String("firm", firmName), zap.Error(err))
		return
	}
	logger.Info("career insights stored",
		zap.String("firm", firmName),
		zap.Int("openings", len(insight.CurrentOpenings)))
}

func fail(result TargetResult, reason string) TargetResult {
	result.Status = StatusFailed
	result.Reason = reason
	return result
}
