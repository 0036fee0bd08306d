// Package telemetry — логирование, correlation id и метрики HRM.
//
// Логгер сообщения кладётся в context (WithLogger) вместе с
// correlation_id, event_id и work_request_id, и все слои ниже consumer
// берут его через FromContext. Correlation id одного work request
// одинаков в API, в событии и в логах worker'а.
//
// Метрики регистрируются в реестре по умолчанию и отдаются на /metrics.
package telemetry
