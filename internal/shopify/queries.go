package shopify

// GraphQL documents sent to the storefront endpoint. Product fields are shared
// so every product-returning operation normalizes through the same path.

const productFields = `
fragment ProductFields on Product {
  id
  handle
  title
  description
  vendor
  tags
  featuredImage { url }
  images(first: 5) { edges { node { url } } }
  priceRange { minVariantPrice { amount currencyCode } }
  variants(first: 50) {
    edges {
      node {
        id
        title
        availableForSale
        image { url }
        price { amount currencyCode }
      }
    }
  }
}
`

const cartLineFields = `
fragment CartLineFields on CartLine {
  id
  quantity
  merchandise {
    ... on ProductVariant {
      id
      title
      image { url }
      price { amount currencyCode }
      product { id handle title featuredImage { url } }
    }
  }
}
`

const createCartMutation = `
mutation CartCreate {
  cartCreate {
    cart { id checkoutUrl }
    userErrors { field message }
  }
}
`

const cartLinesQuery = `
query CartLines($cartId: ID!, $first: Int!) {
  cart(id: $cartId) {
    id
    checkoutUrl
    lines(first: $first) { edges { node { ...CartLineFields } } }
  }
}
` + cartLineFields

const addLinesMutation = `
mutation CartLinesAdd($cartId: ID!, $lines: [CartLineInput!]!) {
  cartLinesAdd(cartId: $cartId, lines: $lines) {
    cart { id }
    userErrors { field message }
  }
}
`

const removeLinesMutation = `
mutation CartLinesRemove($cartId: ID!, $lineIds: [ID!]!) {
  cartLinesRemove(cartId: $cartId, lineIds: $lineIds) {
    cart { id }
    userErrors { field message }
  }
}
`

const productByIDQuery = `
query ProductByID($id: ID!) {
  node(id: $id) { ... on Product { ...ProductFields } }
}
` + productFields

const productByHandleQuery = `
query ProductByHandle($handle: String!) {
  product(handle: $handle) { ...ProductFields }
}
` + productFields

const searchProductsQuery = `
query SearchProducts($query: String!, $first: Int!, $after: String) {
  search(query: $query, first: $first, after: $after, types: PRODUCT) {
    pageInfo { hasNextPage endCursor }
    edges { node { ... on Product { ...ProductFields } } }
  }
}
` + productFields

const productsPagedQuery = `
query ProductsPaged($first: Int!, $after: String) {
  products(first: $first, after: $after) {
    pageInfo { hasNextPage endCursor }
    edges { node { ...ProductFields } }
  }
}
` + productFields
