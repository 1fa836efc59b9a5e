package config

// StarterYAML is written by `fairness-check init`.
const StarterYAML = `endpoint:
  url: http://localhost:8000/classify
  method: POST
  timeout: 30
  headers:
    Content-Type: application/json
  # auth_token: ${CLASSIFIER_TOKEN}
  response_keys: [prediction, inference, label, output, class]
dataset:
  path: data/test_dataset.csv
  features_column: features
  labels_column: label
  sensitive_column: sensitive_attribute
  features_format: raw
fairness:
  demographic_parity_threshold: 0.1
  equal_opportunity_threshold: 0.1
  # disparate_impact_threshold: 0.8
  max_failure_rate: 1.0
execution:
  concurrency: 4
`
